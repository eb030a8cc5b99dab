package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/schedorder/internal/common"
)

var extractStore bool

func init() {
	extractCmd.Flags().BoolVar(&extractStore, "store", false, "check duplicates against and persist to the configured store")
}

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract one scheduling order and print the outcome as JSON",
	Long: `Extract one scheduling order and print the outcome as JSON.

Examples:
  # Extract without touching the database
  schedorder extract order.pdf

  # Extract, dedupe and store review-cleared results
  schedorder extract --store order.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := common.WithSource(cmd.Context(), "cli")
	a, _, err := loadApp(ctx, extractStore)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.Service.ProcessFile(ctx, args[0])
	return printJSON(cmd.OutOrStdout(), res)
}

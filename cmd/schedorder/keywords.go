package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/core/classify"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Print the active deadline keyword table in precedence order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, _, err := loadApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		for _, row := range a.Keywords.Rows() {
			if _, err := fmt.Fprintf(out, "%-12s %.1f  %s\n", row.Category, classify.Confidence(row.Category), strings.Join(row.Keywords, ", ")); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(out, "%-12s %.1f  (no keyword matched)\n", constants.Other, classify.Confidence(constants.Other))
		return err
	},
}

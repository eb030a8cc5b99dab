// Package main implements the schedorder CLI for extracting deadlines from
// scheduling orders on the local filesystem.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/schedorder/internal/app"
	"github.com/joseph-ayodele/schedorder/internal/common"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "schedorder",
	Short: "Extract calendar deadlines from court scheduling orders",
	Long: `schedorder reads scheduling orders (PDF or plain text), finds the case number,
court, judge and every dated deadline, classifies each deadline and flags documents
that need a human look before they reach the calendar.

Configuration comes from an optional YAML file (--config) and SCHEDORDER_* environment
variables, e.g. SCHEDORDER_DATABASE_DSN or SCHEDORDER_EXTRACTION_TIMEZONE.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(extractCmd, batchCmd, watchCmd, keywordsCmd)
}

// loadApp reads configuration and wires the pipeline. The logger goes to stderr so
// stdout stays clean for JSON output.
func loadApp(ctx context.Context, withStore bool) (*app.App, *slog.Logger, error) {
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := common.NewLogger(cfg.Log)
	a, err := app.Build(ctx, cfg, logger, app.Options{Store: withStore})
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

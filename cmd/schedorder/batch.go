package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/services/extraction"
)

var (
	batchDir        string
	batchOut        string
	batchStore      bool
	batchJSON       bool
	batchShowHidden bool
)

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of scheduling orders (required)")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "write an XLSX workbook of deadlines and review items")
	batchCmd.Flags().BoolVar(&batchStore, "store", false, "persist review-cleared documents to the configured store")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print the full report as JSON")
	batchCmd.Flags().BoolVar(&batchShowHidden, "include-hidden", false, "descend into hidden files and directories")
	_ = batchCmd.MarkFlagRequired("dir")
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process every PDF and text file under a directory",
	Long: `Process every PDF and text file under a directory, one at a time, and print a
summary of successful, needs-review, duplicate and failed documents.

Examples:
  schedorder batch --dir ./orders
  schedorder batch --dir ./orders --store --out deadlines.xlsx`,
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := common.WithSource(cmd.Context(), "cli")
	a, logger, err := loadApp(ctx, batchStore)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Service.ProcessDirectory(ctx, batchDir, !batchShowHidden)
	if err != nil {
		return err
	}

	if batchOut != "" {
		data, err := a.Exporter.BatchXLSX(report.Results)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(batchOut), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(batchOut, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", batchOut, err)
		}
		logger.Info("batch.export.written", "path", batchOut, "bytes", len(data))
	}

	if batchJSON {
		return printJSON(cmd.OutOrStdout(), report)
	}
	return printSummary(cmd, report)
}

func printSummary(cmd *cobra.Command, report *extraction.BatchReport) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tRESULT\tCASE\tDEADLINES\tDETAIL")
	for _, r := range report.Results {
		result, caseNumber, count, detail := "ok", "", 0, ""
		out := r.Outcome
		switch {
		case out.Success && out.NeedsReview:
			result = "review"
		case out.Duplicate():
			result = "duplicate"
		case !out.Success:
			result = "failed"
			detail = out.ErrorMessage()
		}
		if out.Data != nil {
			caseNumber = out.Data.CaseNumber
			count = len(out.Data.Deadlines)
		}
		if r.StoreError != "" {
			detail = "store: " + r.StoreError
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.Filename, result, caseNumber, count, detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	s := report.Summary
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "\ntotal=%d successful=%d needs_review=%d duplicates=%d failed=%d stored=%d\n",
		s.Total, s.Successful, s.NeedsReview, s.Duplicates, s.Failed, s.Stored)
	return err
}

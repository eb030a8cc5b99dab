// Package export renders extraction results as XLSX workbooks for docketing staff.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/schedorder/internal/entity"
	"github.com/joseph-ayodele/schedorder/internal/services/extraction"
)

const (
	DeadlinesSheet = "Deadlines"
	ReviewSheet    = "Needs Review"
)

var deadlineHeaders = []string{
	"Case Number",
	"Due Date",
	"Category",
	"Title",
	"Confidence",
	"Status",
	"Source File",
}

var reviewHeaders = []string{
	"Source File",
	"Case Number",
	"Problem",
	"Low-Confidence Deadlines",
}

// Service produces XLSX bytes from batch results and stored deadlines.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// BatchXLSX lists deadlines of review-cleared documents on the Deadlines sheet and
// every outcome that needs a human on the Needs Review sheet. Duplicates are left out.
func (s *Service) BatchXLSX(results []extraction.Result) ([]byte, error) {
	start := time.Now()
	f, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	row, reviewRow := 2, 2
	for _, r := range results {
		out := r.Outcome
		switch {
		case out.Success && !out.NeedsReview:
			for _, d := range out.Data.Deadlines {
				writeRow(f, DeadlinesSheet, row, out.Data.CaseNumber, d.DueDate.Format("2006-01-02"),
					string(d.Category), d.Title, d.ConfidenceScore, string(d.Status), r.Filename)
				row++
			}
		case out.NeedsReview:
			caseNumber, problem, low := "", out.ErrorMessage(), ""
			if out.Data != nil {
				caseNumber = out.Data.CaseNumber
				problem = "low confidence classification"
				low = lowConfidenceTitles(out.Data)
			}
			writeRow(f, ReviewSheet, reviewRow, r.Filename, caseNumber, problem, low)
			reviewRow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"results", len(results),
		"deadline_rows", row-2,
		"review_rows", reviewRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// CaseXLSX renders stored deadlines of one case.
func (s *Service) CaseXLSX(caseNumber string, deadlines []entity.DeadlineRecord) ([]byte, error) {
	f, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for i, d := range deadlines {
		writeRow(f, DeadlinesSheet, i+2, caseNumber, d.DueDate.Format("2006-01-02"),
			string(d.Category), d.Title, d.ConfidenceScore, string(d.Status), d.SchedulingOrderID.String())
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.case.xlsx.ok", "case_number", caseNumber, "rows", len(deadlines))
	return buf.Bytes(), nil
}

func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	// NewFile starts with Sheet1; rename it instead of leaving an empty tab.
	if err := f.SetSheetName("Sheet1", DeadlinesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(ReviewSheet); err != nil {
		return nil, err
	}
	idx, _ := f.GetSheetIndex(DeadlinesSheet)
	f.SetActiveSheet(idx)

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	for sheet, headers := range map[string][]string{DeadlinesSheet: deadlineHeaders, ReviewSheet: reviewHeaders} {
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = f.SetCellValue(sheet, cell, h)
		}
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", last, headerStyle)
	}

	_ = f.SetColWidth(DeadlinesSheet, "A", "A", 18) // case
	_ = f.SetColWidth(DeadlinesSheet, "B", "C", 14)
	_ = f.SetColWidth(DeadlinesSheet, "D", "D", 60) // title
	_ = f.SetColWidth(DeadlinesSheet, "G", "G", 40)
	_ = f.SetColWidth(ReviewSheet, "A", "B", 24)
	_ = f.SetColWidth(ReviewSheet, "C", "D", 60)
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if s, ok := v.(string); ok {
			v = truncate(s, 500)
		}
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func lowConfidenceTitles(doc *entity.ExtractedDocument) string {
	low := doc.LowConfidence()
	titles := make([]string, 0, len(low))
	for _, d := range low {
		titles = append(titles, d.DueDate.Format("2006-01-02")+" "+truncate(d.Title, 80))
	}
	return strings.Join(titles, "; ")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

package extraction

import (
	"context"
	"path/filepath"

	"github.com/joseph-ayodele/schedorder/internal/ingest"
)

// Summary counts batch outcomes. Each result lands in exactly one of Successful,
// NeedsReview, Duplicates or Failed.
type Summary struct {
	Total       int `json:"total"`
	Successful  int `json:"successful"`
	NeedsReview int `json:"needs_review"`
	Duplicates  int `json:"duplicates"`
	Failed      int `json:"failed"`
	Stored      int `json:"stored"`
}

func (s *Summary) Add(r Result) {
	s.Total++
	switch out := r.Outcome; {
	case out.Success && !out.NeedsReview:
		s.Successful++
	case out.Success:
		s.NeedsReview++
	case out.Duplicate():
		s.Duplicates++
	default:
		s.Failed++
	}
	if r.OrderID != nil {
		s.Stored++
	}
}

// BatchReport is the result of ProcessDirectory.
type BatchReport struct {
	Root    string          `json:"root"`
	Stats   ingest.DirStats `json:"stats"`
	Summary Summary         `json:"summary"`
	Results []Result        `json:"results"`
}

// ProcessDirectory processes every supported file under root, one at a time in
// lexical order so duplicates within the batch are caught by the hash gate.
func (s *Service) ProcessDirectory(ctx context.Context, root string, skipHidden bool) (*BatchReport, error) {
	report := &BatchReport{Root: root}
	if abs, err := filepath.Abs(root); err == nil {
		report.Root = abs
	}
	s.logger.Info("extraction.batch.start", "root", report.Root, "skip_hidden", skipHidden)

	stats, err := ingest.WalkDocuments(ctx, report.Root, skipHidden, func(path string) error {
		r := s.ProcessFile(ctx, path)
		report.Results = append(report.Results, r)
		report.Summary.Add(r)
		return nil
	})
	report.Stats = stats
	if err != nil {
		s.logger.Error("extraction.batch.failed", "root", report.Root, "err", err)
		return report, err
	}

	sum := report.Summary
	s.logger.Info("extraction.batch.done",
		"root", report.Root,
		"total", sum.Total,
		"successful", sum.Successful,
		"needs_review", sum.NeedsReview,
		"duplicates", sum.Duplicates,
		"failed", sum.Failed,
		"stored", sum.Stored,
	)
	return report, nil
}

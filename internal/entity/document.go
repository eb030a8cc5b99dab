package entity

import (
	"fmt"
	"regexp"
	"time"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/common"
)

var caseNumberShape = regexp.MustCompile(`^[\w\-\s:]+$`)

// ExtractedDocument is the structured result of one scheduling order.
type ExtractedDocument struct {
	CaseNumber          string                 `json:"case_number"`
	DocumentType        constants.DocumentType `json:"document_type"`
	FilingDate          *time.Time             `json:"filing_date"`
	CourtName           *string                `json:"court_name"`
	JudgeName           *string                `json:"judge_name"`
	Deadlines           []Deadline             `json:"deadlines"`
	OriginalFilename    string                 `json:"original_filename"`
	FileHash            string                 `json:"file_hash"`
	ExtractionTimestamp time.Time              `json:"extraction_timestamp"`
}

// Validate checks the document and every deadline against the extraction timestamp.
func (d *ExtractedDocument) Validate() error {
	v := common.NewValidator()
	v.Field("case_number", d.CaseNumber, common.Required, common.Matches(caseNumberShape, "must contain only word characters, hyphens, spaces and colons"))
	v.Field("court_name", d.CourtName, common.MaxLength(constants.MaxCourtLen))
	v.Field("judge_name", d.JudgeName, common.MaxLength(constants.MaxJudgeLen))
	v.Field("file_hash", d.FileHash, common.MinLength(constants.MinFileHashLen))
	switch d.DocumentType {
	case constants.SchedulingOrder, constants.AmendedSchedulingOrder:
	default:
		v.Field("document_type", d.DocumentType, invalid("unknown document type"))
	}
	if err := v.Error(); err != nil {
		return err
	}

	for i, dl := range d.Deadlines {
		if err := dl.Validate(d.ExtractionTimestamp); err != nil {
			return fmt.Errorf("deadlines[%d]: %w", i, err)
		}
	}
	return nil
}

// LowConfidence returns the deadlines scoring under the review threshold.
func (d *ExtractedDocument) LowConfidence() []Deadline {
	var out []Deadline
	for _, dl := range d.Deadlines {
		if dl.ConfidenceScore < constants.ReviewThreshold {
			out = append(out, dl)
		}
	}
	return out
}

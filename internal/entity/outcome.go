package entity

import (
	"github.com/joseph-ayodele/schedorder/constants"
)

// ExtractionOutcome is the only value the pipeline returns.
//
// Success implies Data != nil and Error == nil; failure implies the reverse.
type ExtractionOutcome struct {
	Success     bool                  `json:"success"`
	Data        *ExtractedDocument    `json:"data"`
	Error       *string               `json:"error"`
	NeedsReview bool                  `json:"needs_review"`
	ErrorKind   constants.FailureKind `json:"error_kind,omitempty"`
}

func Succeeded(doc *ExtractedDocument, needsReview bool) ExtractionOutcome {
	return ExtractionOutcome{Success: true, Data: doc, NeedsReview: needsReview}
}

// Failed builds a failed outcome. Duplicates are the only failures that skip review.
func Failed(kind constants.FailureKind, message string) ExtractionOutcome {
	return ExtractionOutcome{
		Success:     false,
		Error:       &message,
		NeedsReview: kind != constants.FailureDuplicate,
		ErrorKind:   kind,
	}
}

// Storable reports whether the outcome may be persisted without human review.
func (o ExtractionOutcome) Storable() bool {
	return o.Success && !o.NeedsReview && o.Data != nil
}

// Duplicate reports whether extraction stopped at the fingerprint gate.
func (o ExtractionOutcome) Duplicate() bool {
	return o.ErrorKind == constants.FailureDuplicate
}

func (o ExtractionOutcome) ErrorMessage() string {
	if o.Error == nil {
		return ""
	}
	return *o.Error
}

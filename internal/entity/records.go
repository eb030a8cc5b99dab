package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/schedorder/constants"
)

// DocumentRecord is the scheduling_orders row for an extracted document.
type DocumentRecord struct {
	ID                  uuid.UUID              `json:"id"`
	CaseNumber          string                 `json:"case_number"`
	DocumentType        constants.DocumentType `json:"document_type"`
	FilingDate          *time.Time             `json:"filing_date,omitempty"`
	CourtName           *string                `json:"court_name,omitempty"`
	JudgeName           *string                `json:"judge_name,omitempty"`
	OriginalFilename    string                 `json:"original_filename"`
	FileHash            string                 `json:"file_hash"`
	ExtractionTimestamp time.Time              `json:"extraction_timestamp"`
	ArchiveKey          *string                `json:"archive_key,omitempty"`
}

// DeadlineRecord is a calendar_deadlines row. SchedulingOrderID is assigned by the store.
type DeadlineRecord struct {
	ID                uuid.UUID                  `json:"id"`
	SchedulingOrderID uuid.UUID                  `json:"scheduling_order_id"`
	Title             string                     `json:"title"`
	DueDate           time.Time                  `json:"due_date"`
	Description       *string                    `json:"description,omitempty"`
	Category          constants.DeadlineCategory `json:"category"`
	Status            constants.DeadlineStatus   `json:"status"`
	ConfidenceScore   float64                    `json:"confidence_score"`
}

// Split separates a document into its persistence rows. IDs are left zero.
func Split(doc *ExtractedDocument) (DocumentRecord, []DeadlineRecord) {
	rec := DocumentRecord{
		CaseNumber:          doc.CaseNumber,
		DocumentType:        doc.DocumentType,
		FilingDate:          doc.FilingDate,
		CourtName:           doc.CourtName,
		JudgeName:           doc.JudgeName,
		OriginalFilename:    doc.OriginalFilename,
		FileHash:            doc.FileHash,
		ExtractionTimestamp: doc.ExtractionTimestamp,
	}
	deadlines := make([]DeadlineRecord, 0, len(doc.Deadlines))
	for _, d := range doc.Deadlines {
		deadlines = append(deadlines, DeadlineRecord{
			Title:           d.Title,
			DueDate:         d.DueDate,
			Description:     d.Description,
			Category:        d.Category,
			Status:          d.Status,
			ConfidenceScore: d.ConfidenceScore,
		})
	}
	return rec, deadlines
}

package entity

import (
	"time"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/common"
)

// Deadline is one dated obligation found in a scheduling order.
type Deadline struct {
	Title           string                     `json:"title"`
	DueDate         time.Time                  `json:"due_date"`
	Description     *string                    `json:"description,omitempty"`
	Category        constants.DeadlineCategory `json:"category"`
	Status          constants.DeadlineStatus   `json:"status"`
	ConfidenceScore float64                    `json:"confidence_score"`
}

// NewDeadline builds an ACTIVE deadline whose title is the trimmed context and whose
// description is the raw context.
func NewDeadline(title string, due time.Time, category constants.DeadlineCategory, confidence float64, description string) Deadline {
	return Deadline{
		Title:           title,
		DueDate:         due,
		Description:     &description,
		Category:        category,
		Status:          constants.DeadlineActive,
		ConfidenceScore: confidence,
	}
}

// Validate checks field limits. Due dates strictly before now are rejected.
func (d Deadline) Validate(now time.Time) error {
	v := common.NewValidator()
	v.Field("title", d.Title, common.Required, common.MinLength(1), common.MaxLength(constants.MaxTitleLen))
	v.Field("description", d.Description, common.MaxLength(constants.MaxDescriptionLen))
	v.Field("confidence_score", d.ConfidenceScore, common.Between(0, 1))
	v.Field("due_date", d.DueDate, common.NotBefore(now, constants.MsgPastDueDate))
	if _, ok := constants.Canonicalize(string(d.Category)); !ok {
		v.Field("category", d.Category, invalid("unknown deadline category"))
	}
	switch d.Status {
	case constants.DeadlineActive, constants.DeadlineSuperseded, constants.DeadlineCompleted:
	default:
		v.Field("status", d.Status, invalid("unknown deadline status"))
	}
	return v.Error()
}

func invalid(message string) common.ValidationRule {
	return func(fieldName string, value interface{}) *common.ValidationError {
		return &common.ValidationError{Field: fieldName, Value: value, Message: message}
	}
}

// Package review decides whether an extraction must be seen by a person.
package review

import (
	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/entity"
)

// Needed reports whether any deadline scores under the review threshold.
func Needed(deadlines []entity.Deadline) bool {
	for _, d := range deadlines {
		if d.ConfidenceScore < constants.ReviewThreshold {
			return true
		}
	}
	return false
}

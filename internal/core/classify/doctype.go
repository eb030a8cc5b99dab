package classify

import (
	"regexp"

	"github.com/joseph-ayodele/schedorder/constants"
)

var amendmentCue = regexp.MustCompile(`(?i)amended|modified|revised`)

// DocumentType reports AMENDED_SCHEDULING_ORDER when any amendment cue occurs in text.
func DocumentType(text string) constants.DocumentType {
	if amendmentCue.MatchString(text) {
		return constants.AmendedSchedulingOrder
	}
	return constants.SchedulingOrder
}

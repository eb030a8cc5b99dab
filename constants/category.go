package constants

import (
	"strings"
)

// DeadlineCategory is the coarse legal-process bucket a deadline falls into.
type DeadlineCategory string

const (
	Discovery  DeadlineCategory = "DISCOVERY"
	Motion     DeadlineCategory = "MOTION"
	Trial      DeadlineCategory = "TRIAL"
	Pretrial   DeadlineCategory = "PRETRIAL"
	Hearing    DeadlineCategory = "HEARING"
	Conference DeadlineCategory = "CONFERENCE"
	Other      DeadlineCategory = "OTHER"
)

// allCategories is also the keyword precedence order.
var allCategories = []DeadlineCategory{
	Discovery,
	Motion,
	Trial,
	Pretrial,
	Hearing,
	Conference,
	Other,
}

// Categories returns every category in precedence order.
func Categories() []DeadlineCategory {
	out := make([]DeadlineCategory, len(allCategories))
	copy(out, allCategories)
	return out
}

// Canonicalize maps loosely written category names ("pre-trial", "Motion ") onto
// a DeadlineCategory. Unknown input yields Other and false.
func Canonicalize(input string) (DeadlineCategory, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToUpper(strings.TrimSpace(input))
	normalized = strings.NewReplacer("-", "", " ", "", "_", "").Replace(normalized)

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}

	return Other, false
}

// DefaultKeywords is the stock keyword table. Order matters: the first category
// with a keyword hit wins.
var DefaultKeywords = []CategoryKeywords{
	{Category: Discovery, Keywords: []string{"discovery", "disclosure", "production", "interrogatories", "deposition", "request for production"}},
	{Category: Motion, Keywords: []string{"motion", "response", "reply", "brief", "memorandum"}},
	{Category: Trial, Keywords: []string{"trial", "jury selection", "verdict"}},
	{Category: Pretrial, Keywords: []string{"pretrial", "pre-trial", "settlement conference"}},
	{Category: Hearing, Keywords: []string{"hearing", "oral argument", "status conference"}},
	{Category: Conference, Keywords: []string{"conference", "meeting", "consultation"}},
}

// CategoryKeywords is one row of a keyword table.
type CategoryKeywords struct {
	Category DeadlineCategory `yaml:"category" json:"category"`
	Keywords []string         `yaml:"keywords" json:"keywords"`
}

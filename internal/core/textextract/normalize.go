package textextract

import (
	"regexp"
	"strings"
)

var (
	reSpaces   = regexp.MustCompile(`[ \t\x0B\f\r]+`)
	reNewlines = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans extractor output: unix newlines, single spaces, at most one blank
// line in a row, no trailing blanks. Digits and punctuation are left untouched since
// date and case-number patterns run on the result.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = reSpaces.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(ln)
	}
	s = strings.Join(lines, "\n")
	s = reNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

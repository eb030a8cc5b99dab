// Package dates finds calendar dates in free text together with the text around them.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
)

// ContextRadius is the number of characters kept on each side of a date match.
const ContextRadius = 50

// Patterns are applied independently and in this order.
var Patterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
}

// Candidate is a parsed date and its surrounding context.
type Candidate struct {
	Context string
	Date    time.Time
	Match   string
	// Byte offsets of the match in the source text.
	Start, End int
}

type Option func(*Extractor)

// WithLocation sets the zone dates without an explicit offset are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithKeyByPosition keys results on match position instead of context text, so two
// dates that share identical surroundings are both kept.
func WithKeyByPosition(on bool) Option {
	return func(e *Extractor) { e.byPosition = on }
}

// WithParser replaces the natural-language date parser.
func WithParser(parse func(s string, loc *time.Location) (time.Time, error)) Option {
	return func(e *Extractor) {
		if parse != nil {
			e.parse = parse
		}
	}
}

type Extractor struct {
	loc        *time.Location
	byPosition bool
	parse      func(s string, loc *time.Location) (time.Time, error)
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		loc:   time.UTC,
		parse: parseDate,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	// Numeric forms are read month first.
	return dateparse.ParseIn(s, loc)
}

// Extract returns candidates in pattern order, then match order. With context keying a
// later candidate whose context equals an earlier one replaces that entry's date but
// keeps its position. Unparsable matches are dropped.
func (e *Extractor) Extract(text string) []Candidate {
	var out []Candidate
	index := make(map[string]int)

	for _, re := range Patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			when, err := e.parse(match, e.loc)
			if err != nil {
				continue
			}
			c := Candidate{
				Context: Window(text, loc[0], loc[1], ContextRadius),
				Date:    when,
				Match:   match,
				Start:   loc[0],
				End:     loc[1],
			}

			key := c.Context
			if e.byPosition {
				key = fmt.Sprintf("%d:%d", c.Start, c.End)
			}
			if i, ok := index[key]; ok {
				out[i].Date = c.Date
				continue
			}
			index[key] = len(out)
			out = append(out, c)
		}
	}
	return out
}

// Window returns text from radius characters before start to radius characters after
// end, clipped to the text. start and end are byte offsets on rune boundaries.
func Window(text string, start, end, radius int) string {
	from := start
	for i := 0; i < radius && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for i := 0; i < radius && to < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}
	return text[from:to]
}

// Title is the trimmed context used as a deadline title.
func (c Candidate) Title() string {
	return strings.TrimSpace(c.Context)
}

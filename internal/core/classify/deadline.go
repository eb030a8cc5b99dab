// Package classify assigns deadline categories and document types from lexical cues.
package classify

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/common"
)

// Table is an ordered keyword table. Earlier rows take precedence.
type Table struct {
	rows []constants.CategoryKeywords
}

// DefaultTable returns the stock keyword table.
func DefaultTable() *Table {
	t, _ := NewTable(constants.DefaultKeywords)
	return t
}

// NewTable validates rows and lowercases their keywords.
func NewTable(rows []constants.CategoryKeywords) (*Table, error) {
	t := &Table{rows: make([]constants.CategoryKeywords, 0, len(rows))}
	seen := make(map[constants.DeadlineCategory]bool)
	for i, r := range rows {
		cat, ok := constants.Canonicalize(string(r.Category))
		if !ok || cat == constants.Other {
			return nil, fmt.Errorf("row %d: unknown category %q (want one of %s)", i, r.Category, keywordCategories())
		}
		if seen[cat] {
			return nil, fmt.Errorf("row %d: category %s listed twice", i, cat)
		}
		seen[cat] = true

		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		if len(kws) == 0 {
			return nil, fmt.Errorf("row %d: category %s has no keywords", i, cat)
		}
		t.rows = append(t.rows, constants.CategoryKeywords{Category: cat, Keywords: kws})
	}
	return t, nil
}

// keywordCategories lists the categories a table row may name.
func keywordCategories() string {
	names := make([]string, 0, len(constants.Categories()))
	for _, c := range constants.Categories() {
		if c != constants.Other {
			names = append(names, string(c))
		}
	}
	return strings.Join(names, ", ")
}

// LoadTable reads a YAML keyword table:
//
//	- category: DISCOVERY
//	  keywords: [discovery, deposition]
func LoadTable(r io.Reader) (*Table, error) {
	var rows []constants.CategoryKeywords
	if err := yaml.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode keyword table: %w", err)
	}
	return NewTable(rows)
}

// LoadTableFile is LoadTable on a file path. An empty path yields the default table.
func LoadTableFile(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, common.WrapError(err, "open keyword table")
	}
	defer f.Close()
	return LoadTable(f)
}

// Rows returns a copy of the table in precedence order.
func (t *Table) Rows() []constants.CategoryKeywords {
	out := make([]constants.CategoryKeywords, len(t.rows))
	for i, r := range t.rows {
		out[i] = constants.CategoryKeywords{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Category returns the first category with a keyword contained in context, or OTHER.
func (t *Table) Category(context string) constants.DeadlineCategory {
	lower := strings.ToLower(context)
	for _, r := range t.rows {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Category
			}
		}
	}
	return constants.Other
}

// Confidence is the fixed score for a category.
func Confidence(cat constants.DeadlineCategory) float64 {
	if cat == constants.Other {
		return constants.FallbackConfidence
	}
	return constants.KeywordConfidence
}

// Classify returns the category of context and its confidence.
func (t *Table) Classify(context string) (constants.DeadlineCategory, float64) {
	cat := t.Category(context)
	return cat, Confidence(cat)
}

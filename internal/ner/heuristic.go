// Package ner provides named-entity recognizers for court and judge names.
package ner

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/schedorder/internal/core/entities"
)

type rule struct {
	label string
	re    *regexp.Regexp
}

// Court names keep the case-sensitive tail so lowercase prose is not swallowed.
var defaultRules = []rule{
	{
		label: entities.LabelCourt,
		re: regexp.MustCompile(`\b(?i:united[ \t]+states[ \t]+)?(?i:district|superior|circuit|county|bankruptcy|supreme|municipal|family)[ \t]+(?i:court)` +
			`(?:[ \t]+(?i:for|of)[ \t]+(?i:the)[ \t]+[A-Z][A-Za-z]+(?:[ \t]+(?:of[ \t]+)?[A-Z][A-Za-z]+)*)?`),
	},
	{
		label: entities.LabelJudge,
		re:    regexp.MustCompile(`\b(?:Hon\.|Honorable|Judge)[ \t]+[A-Z][A-Za-z.'\-]*(?:[ \t]+[A-Z][A-Za-z.'\-]*){0,3}`),
	},
}

// HeuristicRecognizer labels courts and judges with regular expressions. It is the
// fallback when no model service is configured.
type HeuristicRecognizer struct {
	rules []rule
}

func NewHeuristicRecognizer() *HeuristicRecognizer {
	return &HeuristicRecognizer{rules: defaultRules}
}

// Recognize returns entities in text order.
func (h *HeuristicRecognizer) Recognize(_ context.Context, text string) ([]entities.Entity, error) {
	type hit struct {
		pos int
		ent entities.Entity
	}
	var hits []hit
	for _, r := range h.rules {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			span := strings.TrimSpace(text[loc[0]:loc[1]])
			hits = append(hits, hit{pos: loc[0], ent: entities.Entity{Label: r.label, Text: span}})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	out := make([]entities.Entity, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.ent)
	}
	return out, nil
}

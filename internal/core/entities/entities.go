// Package entities pulls the case number, court and judge out of document text.
package entities

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Entity labels understood by the extractor.
const (
	LabelCourt = "COURT"
	LabelJudge = "JUDGE"
)

var caseNumberPattern = regexp.MustCompile(`(?i)Case\s+No\.?\s*([\w\-:]+)`)

// Entity is one labelled span returned by a Recognizer.
type Entity struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Recognizer labels named entities in text. Implementations may call out to a model.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// Result holds what the extractor found. Court and Judge are nil when absent.
type Result struct {
	CaseNumber string
	Court      *string
	Judge      *string
}

// CaseNumber returns the first case number in text, or "" and false.
func CaseNumber(text string) (string, bool) {
	m := caseNumberPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

type Extractor struct {
	recognizer Recognizer
}

func NewExtractor(recognizer Recognizer) *Extractor {
	return &Extractor{recognizer: recognizer}
}

// Extract finds the case number and asks the recognizer for court and judge.
// found is false when no case number exists; the recognizer is not called then.
func (e *Extractor) Extract(ctx context.Context, text string) (res Result, found bool, err error) {
	cn, ok := CaseNumber(text)
	if !ok {
		return Result{}, false, nil
	}
	res.CaseNumber = cn

	if e.recognizer == nil {
		return res, true, nil
	}
	ents, err := e.recognizer.Recognize(ctx, text)
	if err != nil {
		return res, true, fmt.Errorf("recognize entities: %w", err)
	}
	for _, ent := range ents {
		val := strings.TrimSpace(ent.Text)
		if val == "" {
			continue
		}
		switch ent.Label {
		case LabelCourt:
			if res.Court == nil {
				res.Court = &val
			}
		case LabelJudge:
			if res.Judge == nil {
				res.Judge = &val
			}
		}
	}
	return res, true, nil
}

package ner

import (
	"log/slog"

	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/core/entities"
)

// FromConfig returns the HTTP recognizer when a URL is configured, otherwise the heuristic one.
func FromConfig(cfg common.NERConfig, logger *slog.Logger) (entities.Recognizer, error) {
	if cfg.URL == "" {
		return NewHeuristicRecognizer(), nil
	}
	r, err := NewHTTPRecognizer(HTTPConfig{
		URL:       cfg.URL,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
	}, nil, logger)
	if err != nil {
		return nil, err
	}
	return r, nil
}

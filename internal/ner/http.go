package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/core/entities"
)

type recognizeRequest struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

type recognizeResponse struct {
	Entities []entities.Entity `json:"entities"`
}

type HTTPConfig struct {
	URL       string
	Timeout   time.Duration
	RateLimit float64 // requests per second; 0 disables throttling
	Burst     int
	Headers   map[string]string
}

// HTTPRecognizer calls an external entity-recognition service:
//
//	POST {URL} {"text": "...", "labels": ["COURT","JUDGE"]}
//	200 {"entities": [{"label": "COURT", "text": "..."}]}
type HTTPRecognizer struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	schema  *jsonschema.Schema
	logger  *slog.Logger
}

func NewHTTPRecognizer(cfg HTTPConfig, client *http.Client, logger *slog.Logger) (*HTTPRecognizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URL == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "ner url is required", common.ErrInvalidInput)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	schema, err := compileSchema(ResponseSchema)
	if err != nil {
		return nil, err
	}
	r := &HTTPRecognizer{cfg: cfg, client: client, schema: schema, logger: logger}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return r, nil
}

func (r *HTTPRecognizer) Recognize(ctx context.Context, text string) ([]entities.Entity, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("ner rate limit: %w", err)
		}
	}

	raw, _, err := r.sendJSON(ctx, recognizeRequest{Text: text, Labels: []string{entities.LabelCourt, entities.LabelJudge}})
	if err != nil {
		return nil, err
	}
	if err := validate(r.schema, raw); err != nil {
		r.logger.Warn("ner.http.invalid_response", "error", err)
		return nil, err
	}

	var resp recognizeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode ner response: %w", err)
	}
	return resp.Entities, nil
}

// sendJSON posts body and returns the raw response body.
func (r *HTTPRecognizer) sendJSON(ctx context.Context, body any) ([]byte, int, error) {
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(bs))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	for k, v := range r.cfg.Headers {
		req.Header.Set(k, v)
	}

	r.logger.Debug("ner.http.request", "req_id", reqID, "url", r.cfg.URL, "content_length", len(bs))

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("ner.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, fmt.Errorf("ner request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			r.logger.Warn("ner.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read ner response: %w", err)
	}

	r.logger.Debug("ner.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("ner service returned status %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}

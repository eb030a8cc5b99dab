// Package extraction drives the pipeline for files, uploads and directories, and
// persists the outcomes that clear review.
package extraction

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/core/pipeline"
	"github.com/joseph-ayodele/schedorder/internal/entity"
	"github.com/joseph-ayodele/schedorder/internal/ingest"
	"github.com/joseph-ayodele/schedorder/internal/metrics"
	"github.com/joseph-ayodele/schedorder/internal/repository"
	"github.com/joseph-ayodele/schedorder/internal/storage"
)

// Loader turns paths and uploads into pipeline input.
type Loader interface {
	LoadPath(ctx context.Context, path string) (ingest.Source, error)
	LoadBytes(ctx context.Context, filename string, data []byte) (ingest.Source, error)
	LoadWithText(filename string, data []byte, text string) (ingest.Source, error)
}

// Extractor is satisfied by pipeline.Processor.
type Extractor interface {
	Extract(ctx context.Context, doc pipeline.Document) entity.ExtractionOutcome
}

// ErrStoreDisabled is returned by lookups when the service runs without a store.
var ErrStoreDisabled = common.NewAppError("STORE_DISABLED", "no document store configured", common.ErrNotFound)

// Result is one processed file.
type Result struct {
	Path       string                   `json:"path,omitempty"`
	Filename   string                   `json:"filename"`
	Outcome    entity.ExtractionOutcome `json:"outcome"`
	OrderID    *uuid.UUID               `json:"order_id,omitempty"`
	ArchiveKey *string                  `json:"archive_key,omitempty"`
	StoreError string                   `json:"store_error,omitempty"`
}

// Upload is a document received over the API. Text is optional.
type Upload struct {
	Filename string
	Data     []byte
	Text     string
}

type Option func(*Service)

// WithStore enables persistence and lookups.
func WithStore(store repository.DocumentStore) Option {
	return func(s *Service) { s.store = store }
}

// WithArchive uploads the raw file before a document is stored.
func WithArchive(a storage.Archiver) Option {
	return func(s *Service) { s.archive = a }
}

// WithStoreReviewed persists successful outcomes even when they need review.
func WithStoreReviewed(v bool) Option {
	return func(s *Service) { s.storeReviewed = v }
}

type Service struct {
	loader        Loader
	proc          Extractor
	store         repository.DocumentStore
	archive       storage.Archiver
	storeReviewed bool
	logger        *slog.Logger
}

func NewService(loader Loader, proc Extractor, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{loader: loader, proc: proc, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ProcessFile loads path from disk and runs it through the pipeline.
func (s *Service) ProcessFile(ctx context.Context, path string) Result {
	src, err := s.loader.LoadPath(ctx, path)
	if err != nil {
		return s.loadFailed(ctx, path, filepath.Base(path), err)
	}
	return s.run(ctx, src)
}

// ProcessUpload runs an uploaded document. Text extraction is skipped when the
// caller supplies text.
func (s *Service) ProcessUpload(ctx context.Context, up Upload) Result {
	var (
		src ingest.Source
		err error
	)
	if strings.TrimSpace(up.Text) != "" {
		src, err = s.loader.LoadWithText(up.Filename, up.Data, up.Text)
	} else {
		src, err = s.loader.LoadBytes(ctx, up.Filename, up.Data)
	}
	if err != nil {
		return s.loadFailed(ctx, "", up.Filename, err)
	}
	return s.run(ctx, src)
}

func (s *Service) run(ctx context.Context, src ingest.Source) Result {
	res := Result{Path: src.Path, Filename: src.Filename}
	res.Outcome = s.proc.Extract(ctx, pipeline.Document{
		Filename: src.Filename,
		Text:     src.Text,
		Content:  bytes.NewReader(src.Data),
	})

	logger := common.LoggerFromContext(ctx, s.logger).With("filename", src.Filename)
	if doc := res.Outcome.Data; doc != nil && res.Outcome.NeedsReview {
		titles := make([]string, 0)
		for _, d := range doc.LowConfidence() {
			titles = append(titles, d.Title)
		}
		logger.Info("extraction.review.required", "case_number", doc.CaseNumber, "low_confidence", titles)
	}

	if s.shouldStore(res.Outcome) {
		s.persist(ctx, logger, src, &res)
	}
	return res
}

func (s *Service) shouldStore(out entity.ExtractionOutcome) bool {
	if s.store == nil {
		return false
	}
	return out.Storable() || (s.storeReviewed && out.Success && out.Data != nil)
}

func (s *Service) persist(ctx context.Context, logger *slog.Logger, src ingest.Source, res *Result) {
	doc := res.Outcome.Data
	opts := repository.SaveOptions{SupersedePrior: doc.DocumentType == constants.AmendedSchedulingOrder}

	if s.archive != nil {
		key := storage.ObjectKey(doc.CaseNumber, doc.FileHash, src.Filename)
		if err := s.archive.Put(ctx, key, src.Data, storage.ContentType(src.Filename)); err != nil {
			logger.Warn("extraction.archive.failed", "key", key, "err", err)
		} else {
			opts.ArchiveKey = &key
			res.ArchiveKey = &key
		}
	}

	id, err := s.store.SaveDocument(ctx, doc, opts)
	switch {
	case errors.Is(err, common.ErrDuplicate):
		metrics.StoredTotal.WithLabelValues("duplicate").Inc()
		res.StoreError = constants.MsgDuplicateDocument
		logger.Info("extraction.store.duplicate", "file_hash", doc.FileHash)
	case err != nil:
		metrics.StoredTotal.WithLabelValues("error").Inc()
		res.StoreError = err.Error()
		logger.Error("extraction.store.failed", "case_number", doc.CaseNumber, "err", err)
	default:
		metrics.StoredTotal.WithLabelValues("stored").Inc()
		res.OrderID = &id
		logger.Info("extraction.stored", "order_id", id, "case_number", doc.CaseNumber, "deadlines", len(doc.Deadlines))
	}
}

func (s *Service) loadFailed(ctx context.Context, path, filename string, err error) Result {
	kind := constants.FailureUnexpected
	if errors.Is(err, common.ErrInvalidInput) || errors.Is(err, common.ErrValidation) {
		kind = constants.FailureValidation
	}
	common.LoggerFromContext(ctx, s.logger).Warn("extraction.load.failed", "path", path, "filename", filename, "kind", kind, "err", err)
	out := entity.Failed(kind, err.Error())
	metrics.ExtractionsTotal.WithLabelValues(metrics.ResultLabel(out)).Inc()
	return Result{Path: path, Filename: filename, Outcome: out}
}

// GetOrder returns a stored order with its deadlines.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, []entity.DeadlineRecord, error) {
	if s.store == nil {
		return nil, nil, ErrStoreDisabled
	}
	return s.store.GetDocument(ctx, id)
}

// CaseDeadlines lists every stored deadline of a case.
func (s *Service) CaseDeadlines(ctx context.Context, caseNumber string) ([]entity.DeadlineRecord, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	caseNumber = strings.TrimSpace(caseNumber)
	if caseNumber == "" {
		return nil, common.NewAppError("INVALID_CASE", "case number is required", common.ErrInvalidInput)
	}
	return s.store.ListDeadlines(ctx, caseNumber)
}

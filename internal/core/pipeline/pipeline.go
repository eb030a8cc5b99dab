// Package pipeline runs the scheduling-order extraction stages in order and turns
// every failure into an ExtractionOutcome.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/core/classify"
	"github.com/joseph-ayodele/schedorder/internal/core/dates"
	"github.com/joseph-ayodele/schedorder/internal/core/entities"
	"github.com/joseph-ayodele/schedorder/internal/core/fingerprint"
	"github.com/joseph-ayodele/schedorder/internal/core/review"
	"github.com/joseph-ayodele/schedorder/internal/entity"
)

// Document is one input to the pipeline: its extracted text and its raw bytes.
type Document struct {
	Filename string
	Text     string
	Content  io.Reader
}

// Observer receives stage transitions and final outcomes.
type Observer interface {
	Stage(stage constants.Stage)
	Outcome(out entity.ExtractionOutcome, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) Stage(constants.Stage)                            {}
func (nopObserver) Outcome(entity.ExtractionOutcome, time.Duration) {}

type Option func(*Processor)

// WithClock replaces time.Now for the extraction timestamp.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func WithObserver(o Observer) Option {
	return func(p *Processor) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithKeywords replaces the default keyword table.
func WithKeywords(t *classify.Table) Option {
	return func(p *Processor) {
		if t != nil {
			p.keywords = t
		}
	}
}

// WithDateExtractor replaces the default date extractor (UTC, context keyed).
func WithDateExtractor(d *dates.Extractor) Option {
	return func(p *Processor) {
		if d != nil {
			p.dates = d
		}
	}
}

// Processor is stateless between calls and safe for concurrent use.
type Processor struct {
	logger   *slog.Logger
	gate     *fingerprint.Gate
	entities *entities.Extractor
	dates    *dates.Extractor
	keywords *classify.Table
	observer Observer
	now      func() time.Time
}

func NewProcessor(checker fingerprint.ExistenceChecker, recognizer entities.Recognizer, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:   logger,
		gate:     fingerprint.NewGate(checker, logger),
		entities: entities.NewExtractor(recognizer),
		dates:    dates.NewExtractor(),
		keywords: classify.DefaultTable(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Keywords exposes the active keyword table.
func (p *Processor) Keywords() *classify.Table { return p.keywords }

// Extract runs every stage on doc. It never panics and never returns an error: all
// failures are reported through the outcome.
func (p *Processor) Extract(ctx context.Context, doc Document) (out entity.ExtractionOutcome) {
	started := time.Now()
	logger := common.LoggerFromContext(ctx, p.logger).With("filename", doc.Filename)
	stage := constants.StageStart

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline.panic", "stage", stage, "panic", r)
			out = p.fail(logger, common.NewExtractionError(constants.FailureUnexpected, stage, fmt.Sprint(r), nil))
		}
		p.observer.Outcome(out, time.Since(started))
	}()

	advance := func(s constants.Stage) {
		stage = s
		p.observer.Stage(s)
		logger.Debug("pipeline.stage", "stage", s)
	}
	advance(constants.StageStart)

	if doc.Content == nil {
		return p.fail(logger, common.NewExtractionError(constants.FailureUnexpected, stage, "document content is required", common.ErrInvalidInput))
	}

	hash, duplicate, err := p.gate.Check(ctx, doc.Content)
	if err != nil {
		return p.fail(logger, common.AsExtractionError(err, stage))
	}
	if duplicate {
		advance(constants.StageDuplicateStop)
		logger.Info("pipeline.duplicate", "file_hash", hash)
		return entity.Failed(constants.FailureDuplicate, constants.MsgDuplicateDocument)
	}
	advance(constants.StageHashChecked)
	logger = logger.With("file_hash", hash)

	info, found, err := p.entities.Extract(ctx, doc.Text)
	if err != nil {
		return p.fail(logger, common.AsExtractionError(err, stage))
	}
	if !found {
		return p.fail(logger, common.NewExtractionError(constants.FailureMissingField, stage, constants.MsgMissingCaseNumber, nil))
	}
	advance(constants.StageEntitiesExtracted)

	candidates := p.dates.Extract(doc.Text)
	advance(constants.StageDatesExtracted)

	deadlines := make([]entity.Deadline, 0, len(candidates))
	for _, c := range candidates {
		cat, conf := p.keywords.Classify(c.Context)
		deadlines = append(deadlines, entity.NewDeadline(c.Title(), c.Date, cat, conf, c.Context))
	}
	advance(constants.StageClassified)

	extracted := &entity.ExtractedDocument{
		CaseNumber:          info.CaseNumber,
		DocumentType:        classify.DocumentType(doc.Text),
		CourtName:           info.Court,
		JudgeName:           info.Judge,
		Deadlines:           deadlines,
		OriginalFilename:    doc.Filename,
		FileHash:            hash,
		ExtractionTimestamp: p.now(),
	}
	advance(constants.StageTypeDetermined)

	if err := extracted.Validate(); err != nil {
		return p.fail(logger, common.NewExtractionError(constants.FailureValidation, stage, err.Error(), err))
	}

	needsReview := review.Needed(deadlines)
	advance(constants.StageReviewEvaluated)

	advance(constants.StageDone)
	logger.Info("pipeline.done",
		"case_number", extracted.CaseNumber,
		"document_type", extracted.DocumentType,
		"deadlines", len(deadlines),
		"needs_review", needsReview,
	)
	return entity.Succeeded(extracted, needsReview)
}

func (p *Processor) fail(logger *slog.Logger, xe *common.ExtractionError) entity.ExtractionOutcome {
	p.observer.Stage(constants.StageFailed)
	logger.Warn("pipeline.failed", "kind", xe.Kind, "stage", xe.Stage, "err", xe)
	return entity.Failed(xe.Kind, xe.Message)
}

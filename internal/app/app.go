// Package app wires configuration into a ready extraction service. Both binaries
// build on it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/core/classify"
	"github.com/joseph-ayodele/schedorder/internal/core/dates"
	"github.com/joseph-ayodele/schedorder/internal/core/fingerprint"
	"github.com/joseph-ayodele/schedorder/internal/core/pipeline"
	"github.com/joseph-ayodele/schedorder/internal/core/textextract"
	"github.com/joseph-ayodele/schedorder/internal/export"
	"github.com/joseph-ayodele/schedorder/internal/ingest"
	"github.com/joseph-ayodele/schedorder/internal/metrics"
	"github.com/joseph-ayodele/schedorder/internal/ner"
	"github.com/joseph-ayodele/schedorder/internal/repository"
	"github.com/joseph-ayodele/schedorder/internal/services/extraction"
	"github.com/joseph-ayodele/schedorder/internal/storage"
)

// Options selects the optional parts of the wiring.
type Options struct {
	// Store opens the configured document store. Without it nothing is persisted and
	// every document passes the hash gate.
	Store bool
}

type App struct {
	Config    *common.Config
	Store     repository.DocumentStore
	Keywords  *classify.Table
	Processor *pipeline.Processor
	Loader    *ingest.Loader
	Service   *extraction.Service
	Exporter  *export.Service
	logger    *slog.Logger
}

func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, logger: logger}

	keywords, err := classify.LoadTableFile(cfg.Extraction.KeywordsFile)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	a.Keywords = keywords

	recognizer, err := ner.FromConfig(cfg.NER, logger)
	if err != nil {
		return nil, fmt.Errorf("entity recognizer: %w", err)
	}

	var checker fingerprint.ExistenceChecker
	svcOpts := []extraction.Option{extraction.WithStoreReviewed(cfg.Extraction.StoreReviewed)}
	if opts.Store {
		store, err := repository.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.Store = store
		checker = store
		svcOpts = append(svcOpts, extraction.WithStore(store))
	}

	if cfg.Archive.Enabled {
		archive, err := storage.NewMinioArchive(cfg.Archive, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("archive: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("archive bucket: %w", err)
		}
		svcOpts = append(svcOpts, extraction.WithArchive(archive))
	}

	a.Processor = pipeline.NewProcessor(checker, recognizer, logger,
		pipeline.WithKeywords(keywords),
		pipeline.WithDateExtractor(dates.NewExtractor(
			dates.WithLocation(cfg.Location()),
			dates.WithKeyByPosition(cfg.Extraction.KeyByPosition),
		)),
		pipeline.WithObserver(metrics.PipelineObserver{}),
	)

	text := textextract.NewExtractor(textextract.Config{
		Pdftotext:   cfg.TextExtract.PDFToText,
		Pdftoppm:    cfg.TextExtract.PDFToPPM,
		Tesseract:   cfg.TextExtract.Tesseract,
		TessdataDir: cfg.TextExtract.TessdataDir,
		OCRFallback: cfg.TextExtract.OCRFallback,
		Timeout:     cfg.TextExtract.Timeout,
	}, logger)
	a.Loader = ingest.NewLoader(text, cfg.Server.MaxUploadBytes, logger)
	a.Service = extraction.NewService(a.Loader, a.Processor, logger, svcOpts...)
	a.Exporter = export.NewService(logger)
	return a, nil
}

// Health pings the store, if any.
func (a *App) Health(ctx context.Context) error {
	switch s := a.Store.(type) {
	case nil:
		return nil
	case *repository.PostgresStore:
		return repository.HealthCheck(ctx, s.Pool(), 3*time.Second, a.logger)
	default:
		_, err := s.ExistsByHash(ctx, "")
		return err
	}
}

func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.logger.Warn("store close failed", "err", err)
		}
	}
}

package repository

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/entity"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// SaveOptions tunes how a document is persisted.
type SaveOptions struct {
	ArchiveKey *string
	// SupersedePrior marks ACTIVE deadlines of earlier orders for the same case SUPERSEDED.
	SupersedePrior bool
}

// DocumentStore persists review-cleared scheduling orders and answers duplicate checks.
type DocumentStore interface {
	ExistsByHash(ctx context.Context, fileHash string) (bool, error)
	// SaveDocument writes the order and its deadlines atomically and returns the order id.
	// A second document with the same hash yields common.ErrDuplicate.
	SaveDocument(ctx context.Context, doc *entity.ExtractedDocument, opts SaveOptions) (uuid.UUID, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, []entity.DeadlineRecord, error)
	// ListDeadlines returns every deadline stored for a case, earliest due date first.
	ListDeadlines(ctx context.Context, caseNumber string) ([]entity.DeadlineRecord, error)
	Close() error
}

// Open builds the store selected by cfg.Driver and makes sure its schema exists.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (DocumentStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case common.DriverPostgres:
		pool, err := OpenPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(pool, logger)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	case common.DriverSQLite, "":
		return OpenSQLite(ctx, cfg.DSN, logger)
	case common.DriverFirestore:
		return OpenFirestore(ctx, cfg.FirestoreProject, cfg.FirestoreCollection, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func schemaFor(dialect string) (string, error) {
	b, err := schemaFS.ReadFile("schema/" + dialect + ".sql")
	if err != nil {
		return "", fmt.Errorf("read %s schema: %w", dialect, err)
	}
	return string(b), nil
}

// newIDs assigns fresh ids to the order and its deadlines.
func newIDs(doc *entity.ExtractedDocument) (entity.DocumentRecord, []entity.DeadlineRecord) {
	rec, deadlines := entity.Split(doc)
	rec.ID = uuid.New()
	for i := range deadlines {
		deadlines[i].ID = uuid.New()
		deadlines[i].SchedulingOrderID = rec.ID
	}
	return rec, deadlines
}

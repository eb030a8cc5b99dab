package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/entity"
)

const pgUniqueViolation = "23505"

type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

// Pool exposes the underlying pool for health checks.
func (s *PostgresStore) Pool() *pgxpool.Pool { return s.pool }

func (s *PostgresStore) Migrate(ctx context.Context) error {
	ddl, err := schemaFor("postgres")
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) ExistsByHash(ctx context.Context, fileHash string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM scheduling_orders WHERE file_hash = $1)`, fileHash).Scan(&exists)
	if err != nil {
		s.logger.Error("store.exists.failed", "file_hash", fileHash, "error", err)
		return false, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return exists, nil
}

func (s *PostgresStore) SaveDocument(ctx context.Context, doc *entity.ExtractedDocument, opts SaveOptions) (uuid.UUID, error) {
	rec, deadlines := newIDs(doc)
	rec.ArchiveKey = opts.ArchiveKey

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if opts.SupersedePrior {
			if _, err := tx.Exec(ctx, `
				UPDATE calendar_deadlines SET status = $1
				WHERE status = $2 AND scheduling_order_id IN (
					SELECT id FROM scheduling_orders WHERE case_number = $3)`,
				constants.DeadlineSuperseded, constants.DeadlineActive, rec.CaseNumber); err != nil {
				return fmt.Errorf("supersede prior deadlines: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO scheduling_orders
				(id, case_number, document_type, filing_date, court_name, judge_name,
				 original_filename, file_hash, extraction_timestamp, archive_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			rec.ID, rec.CaseNumber, rec.DocumentType, rec.FilingDate, rec.CourtName, rec.JudgeName,
			rec.OriginalFilename, rec.FileHash, rec.ExtractionTimestamp, rec.ArchiveKey); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, d := range deadlines {
			batch.Queue(`
				INSERT INTO calendar_deadlines
					(id, scheduling_order_id, title, due_date, description, category, status, confidence_score)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				d.ID, d.SchedulingOrderID, d.Title, d.DueDate, d.Description, d.Category, d.Status, d.ConfidenceScore)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return uuid.Nil, common.ErrDuplicate
		}
		s.logger.Error("store.save.failed", "case_number", rec.CaseNumber, "file_hash", rec.FileHash, "error", err)
		return uuid.Nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}

	s.logger.Info("store.saved", "order_id", rec.ID, "case_number", rec.CaseNumber, "deadlines", len(deadlines))
	return rec.ID, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, []entity.DeadlineRecord, error) {
	var rec entity.DocumentRecord
	err := s.pool.QueryRow(ctx, `
		SELECT id, case_number, document_type, filing_date, court_name, judge_name,
		       original_filename, file_hash, extraction_timestamp, archive_key
		FROM scheduling_orders WHERE id = $1`, id).Scan(
		&rec.ID, &rec.CaseNumber, &rec.DocumentType, &rec.FilingDate, &rec.CourtName, &rec.JudgeName,
		&rec.OriginalFilename, &rec.FileHash, &rec.ExtractionTimestamp, &rec.ArchiveKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, common.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}

	deadlines, err := s.queryDeadlines(ctx, `WHERE d.scheduling_order_id = $1`, id)
	if err != nil {
		return nil, nil, err
	}
	return &rec, deadlines, nil
}

func (s *PostgresStore) ListDeadlines(ctx context.Context, caseNumber string) ([]entity.DeadlineRecord, error) {
	return s.queryDeadlines(ctx, `WHERE o.case_number = $1`, caseNumber)
}

func (s *PostgresStore) queryDeadlines(ctx context.Context, where string, arg any) ([]entity.DeadlineRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.id, d.scheduling_order_id, d.title, d.due_date, d.description, d.category, d.status, d.confidence_score
		FROM calendar_deadlines d JOIN scheduling_orders o ON o.id = d.scheduling_order_id
		`+where+`
		ORDER BY d.due_date, d.id`, arg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.DeadlineRecord
	for rows.Next() {
		var d entity.DeadlineRecord
		if err := rows.Scan(&d.ID, &d.SchedulingOrderID, &d.Title, &d.DueDate, &d.Description, &d.Category, &d.Status, &d.ConfidenceScore); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.logger.Info("closing database connections")
	s.pool.Close()
	return nil
}

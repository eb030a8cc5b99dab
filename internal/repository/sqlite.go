package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/entity"
)

// Fixed-width UTC timestamps so lexical order matches chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore is the embedded store used by the CLI and tests.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens dsn with the modernc driver and applies the schema. ":memory:"
// is pinned to a single connection so every query sees the same database.
func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	ddl, err := schemaFor("sqlite")
	if err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	logger.Debug("sqlite store ready", "dsn", dsn)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) ExistsByHash(ctx context.Context, fileHash string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM scheduling_orders WHERE file_hash = ?`, fileHash).Scan(&n)
	if err != nil {
		s.logger.Error("store.exists.failed", "file_hash", fileHash, "error", err)
		return false, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) SaveDocument(ctx context.Context, doc *entity.ExtractedDocument, opts SaveOptions) (uuid.UUID, error) {
	rec, deadlines := newIDs(doc)
	rec.ArchiveKey = opts.ArchiveKey

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback() }()

	if opts.SupersedePrior {
		if _, err := tx.ExecContext(ctx, `
			UPDATE calendar_deadlines SET status = ?
			WHERE status = ? AND scheduling_order_id IN (
				SELECT id FROM scheduling_orders WHERE case_number = ?)`,
			string(constants.DeadlineSuperseded), string(constants.DeadlineActive), rec.CaseNumber); err != nil {
			return uuid.Nil, fmt.Errorf("%w: supersede prior deadlines: %v", common.ErrDatabase, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scheduling_orders
			(id, case_number, document_type, filing_date, court_name, judge_name,
			 original_filename, file_hash, extraction_timestamp, archive_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.CaseNumber, string(rec.DocumentType), formatTimePtr(rec.FilingDate),
		rec.CourtName, rec.JudgeName, rec.OriginalFilename, rec.FileHash,
		formatTime(rec.ExtractionTimestamp), rec.ArchiveKey)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return uuid.Nil, common.ErrDuplicate
		}
		s.logger.Error("store.save.failed", "case_number", rec.CaseNumber, "error", err)
		return uuid.Nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}

	for _, d := range deadlines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO calendar_deadlines
				(id, scheduling_order_id, title, due_date, description, category, status, confidence_score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID.String(), d.SchedulingOrderID.String(), d.Title, formatTime(d.DueDate), d.Description,
			string(d.Category), string(d.Status), d.ConfidenceScore)
		if err != nil {
			s.logger.Error("store.save.failed", "case_number", rec.CaseNumber, "error", err)
			return uuid.Nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	s.logger.Info("store.saved", "order_id", rec.ID, "case_number", rec.CaseNumber, "deadlines", len(deadlines))
	return rec.ID, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, []entity.DeadlineRecord, error) {
	var (
		rec                entity.DocumentRecord
		idStr, docType, ts string
		filing             sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, case_number, document_type, filing_date, court_name, judge_name,
		       original_filename, file_hash, extraction_timestamp, archive_key
		FROM scheduling_orders WHERE id = ?`, id.String()).Scan(
		&idStr, &rec.CaseNumber, &docType, &filing, &rec.CourtName, &rec.JudgeName,
		&rec.OriginalFilename, &rec.FileHash, &ts, &rec.ArchiveKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, common.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}

	if rec.ID, err = uuid.Parse(idStr); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	rec.DocumentType = constants.DocumentType(docType)
	if rec.ExtractionTimestamp, err = time.Parse(sqliteTimeLayout, ts); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if filing.Valid {
		t, err := time.Parse(sqliteTimeLayout, filing.String)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		rec.FilingDate = &t
	}

	deadlines, err := s.queryDeadlines(ctx, `WHERE d.scheduling_order_id = ?`, id.String())
	if err != nil {
		return nil, nil, err
	}
	return &rec, deadlines, nil
}

func (s *SQLiteStore) ListDeadlines(ctx context.Context, caseNumber string) ([]entity.DeadlineRecord, error) {
	return s.queryDeadlines(ctx, `WHERE o.case_number = ?`, caseNumber)
}

func (s *SQLiteStore) queryDeadlines(ctx context.Context, where string, arg any) ([]entity.DeadlineRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
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
		var (
			d                      entity.DeadlineRecord
			id, orderID, due, c, st string
		)
		if err := rows.Scan(&id, &orderID, &d.Title, &due, &d.Description, &c, &st, &d.ConfidenceScore); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		if d.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		if d.SchedulingOrderID, err = uuid.Parse(orderID); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		if d.DueDate, err = time.Parse(sqliteTimeLayout, due); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		d.Category = constants.DeadlineCategory(c)
		d.Status = constants.DeadlineStatus(st)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqliteDSN turns on foreign keys for every pooled connection, not just the first.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/entity"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testDocument(hash, caseNumber string, docType constants.DocumentType, dues ...time.Time) *entity.ExtractedDocument {
	court := "District Court"
	doc := &entity.ExtractedDocument{
		CaseNumber:          caseNumber,
		DocumentType:        docType,
		CourtName:           &court,
		OriginalFilename:    "order.pdf",
		FileHash:            hash,
		ExtractionTimestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, due := range dues {
		doc.Deadlines = append(doc.Deadlines, entity.NewDeadline("Trial "+due.Format("2006-01-02"), due, constants.Trial, 0.9, "Trial context"))
	}
	return doc
}

func hashOf(c string) string { return strings.Repeat(c, 64) }

func TestSQLiteStore_SaveAndExists(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	exists, err := s.ExistsByHash(ctx, hashOf("a"))
	require.NoError(t, err)
	assert.False(t, exists)

	due := time.Date(2030, 1, 5, 0, 0, 0, 0, time.UTC)
	id, err := s.SaveDocument(ctx, testDocument(hashOf("a"), "24-CV-1001", constants.SchedulingOrder, due), SaveOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	exists, err = s.ExistsByHash(ctx, hashOf("a"))
	require.NoError(t, err)
	assert.True(t, exists)

	rec, deadlines, err := s.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "24-CV-1001", rec.CaseNumber)
	assert.Equal(t, constants.SchedulingOrder, rec.DocumentType)
	require.NotNil(t, rec.CourtName)
	assert.Equal(t, "District Court", *rec.CourtName)
	assert.Nil(t, rec.JudgeName)
	assert.Nil(t, rec.FilingDate)

	require.Len(t, deadlines, 1)
	assert.Equal(t, id, deadlines[0].SchedulingOrderID)
	assert.True(t, deadlines[0].DueDate.Equal(due))
	assert.Equal(t, constants.Trial, deadlines[0].Category)
	assert.Equal(t, constants.DeadlineActive, deadlines[0].Status)
	assert.Equal(t, 0.9, deadlines[0].ConfidenceScore)
}

func TestSQLiteStore_DuplicateHash(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.SaveDocument(ctx, testDocument(hashOf("b"), "1", constants.SchedulingOrder), SaveOptions{})
	require.NoError(t, err)
	_, err = s.SaveDocument(ctx, testDocument(hashOf("b"), "1", constants.SchedulingOrder), SaveOptions{})
	assert.ErrorIs(t, err, common.ErrDuplicate)
}

func TestSQLiteStore_SupersedePrior(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first := time.Date(2030, 1, 5, 0, 0, 0, 0, time.UTC)
	second := time.Date(2030, 3, 5, 0, 0, 0, 0, time.UTC)

	_, err := s.SaveDocument(ctx, testDocument(hashOf("c"), "42", constants.SchedulingOrder, first), SaveOptions{})
	require.NoError(t, err)
	_, err = s.SaveDocument(ctx, testDocument(hashOf("d"), "42", constants.AmendedSchedulingOrder, second), SaveOptions{SupersedePrior: true})
	require.NoError(t, err)

	deadlines, err := s.ListDeadlines(ctx, "42")
	require.NoError(t, err)
	require.Len(t, deadlines, 2)
	assert.Equal(t, constants.DeadlineSuperseded, deadlines[0].Status)
	assert.Equal(t, constants.DeadlineActive, deadlines[1].Status)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	_, _, err := openTestStore(t).GetDocument(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{":memory:", ":memory:?_pragma=foreign_keys(1)"},
		{"file:orders.db?cache=shared", "file:orders.db?cache=shared&_pragma=foreign_keys(1)"},
		{"orders.db?_pragma=foreign_keys(0)", "orders.db?_pragma=foreign_keys(0)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqliteDSN(tt.in))
	}
}

func TestSQLiteStore_ForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "orders.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	// Hold two connections at once so the pool has to open a second one.
	first, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer first.Close()
	second, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer second.Close()

	for _, conn := range []*sql.Conn{first, second} {
		var on int
		require.NoError(t, conn.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&on))
		assert.Equal(t, 1, on)
	}
}

func TestSQLiteStore_DeadlinesOrderedBySubsecondDue(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	whole := time.Date(2030, 1, 5, 9, 0, 0, 0, time.UTC)
	half := whole.Add(500 * time.Millisecond)
	_, err := s.SaveDocument(ctx, testDocument(hashOf("e"), "24-CV-2002", constants.SchedulingOrder, half, whole), SaveOptions{})
	require.NoError(t, err)

	deadlines, err := s.ListDeadlines(ctx, "24-CV-2002")
	require.NoError(t, err)
	require.Len(t, deadlines, 2)
	assert.True(t, deadlines[0].DueDate.Equal(whole))
	assert.True(t, deadlines[1].DueDate.Equal(half))
}

func TestOpen_SQLiteDriver(t *testing.T) {
	store, err := Open(context.Background(), common.DatabaseConfig{Driver: common.DriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	defer store.Close()
	_, ok := store.(*SQLiteStore)
	assert.True(t, ok)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), common.DatabaseConfig{Driver: "mongo"}, nil)
	assert.Error(t, err)
}

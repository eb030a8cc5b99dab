package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/entity"
	"github.com/joseph-ayodele/schedorder/internal/services/extraction"
)

func openBook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func document(caseNumber string, deadlines ...entity.Deadline) *entity.ExtractedDocument {
	return &entity.ExtractedDocument{
		CaseNumber:   caseNumber,
		DocumentType: constants.SchedulingOrder,
		Deadlines:    deadlines,
	}
}

func TestBatchXLSX(t *testing.T) {
	due := time.Date(2030, 1, 5, 0, 0, 0, 0, time.UTC)
	results := []extraction.Result{
		{Filename: "clean.pdf", Outcome: entity.Succeeded(document("24-CV-1001",
			entity.NewDeadline("Discovery closes", due, constants.Discovery, constants.KeywordConfidence, "ctx")), false)},
		{Filename: "review.pdf", Outcome: entity.Succeeded(document("24-CV-1002",
			entity.NewDeadline("Fees payable", due, constants.Other, constants.FallbackConfidence, "ctx")), true)},
		{Filename: "missing.pdf", Outcome: entity.Failed(constants.FailureMissingField, constants.MsgMissingCaseNumber)},
		{Filename: "dup.pdf", Outcome: entity.Failed(constants.FailureDuplicate, constants.MsgDuplicateDocument)},
	}

	data, err := NewService(nil).BatchXLSX(results)
	require.NoError(t, err)
	f := openBook(t, data)

	assert.Equal(t, []string{DeadlinesSheet, ReviewSheet}, f.GetSheetList())

	rows, err := f.GetRows(DeadlinesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, deadlineHeaders, rows[0])
	assert.Equal(t, []string{"24-CV-1001", "2030-01-05", "DISCOVERY", "Discovery closes", "0.9", "ACTIVE", "clean.pdf"}, rows[1])

	review, err := f.GetRows(ReviewSheet)
	require.NoError(t, err)
	require.Len(t, review, 3)
	assert.Equal(t, []string{"review.pdf", "24-CV-1002", "low confidence classification", "2030-01-05 Fees payable"}, review[1])
	assert.Equal(t, []string{"missing.pdf", "", constants.MsgMissingCaseNumber}, review[2])
}

func TestCaseXLSX(t *testing.T) {
	orderID := uuid.New()
	data, err := NewService(nil).CaseXLSX("24-CV-1001", []entity.DeadlineRecord{{
		SchedulingOrderID: orderID,
		Title:             "Trial",
		DueDate:           time.Date(2031, 3, 2, 0, 0, 0, 0, time.UTC),
		Category:          constants.Trial,
		Status:            constants.DeadlineSuperseded,
		ConfidenceScore:   0.9,
	}})
	require.NoError(t, err)

	rows, err := openBook(t, data).GetRows(DeadlinesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SUPERSEDED", rows[1][5])
	assert.Equal(t, orderID.String(), rows[1][6])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}

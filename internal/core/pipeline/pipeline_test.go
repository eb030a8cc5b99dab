package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/core/entities"
	"github.com/joseph-ayodele/schedorder/internal/core/fingerprint"
	"github.com/joseph-ayodele/schedorder/internal/entity"
)

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type memStore struct {
	mu     sync.Mutex
	hashes map[string]bool
}

func newMemStore() *memStore { return &memStore{hashes: map[string]bool{}} }

func (m *memStore) ExistsByHash(_ context.Context, h string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hashes[h], nil
}

func (m *memStore) add(h string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[h] = true
}

type errStore struct{}

func (errStore) ExistsByHash(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

type fixedRecognizer []entities.Entity

func (f fixedRecognizer) Recognize(context.Context, string) ([]entities.Entity, error) {
	return f, nil
}

type panicRecognizer struct{}

func (panicRecognizer) Recognize(context.Context, string) ([]entities.Entity, error) {
	panic("model crashed")
}

type recordingObserver struct {
	stages   []constants.Stage
	outcomes []entity.ExtractionOutcome
}

func (r *recordingObserver) Stage(s constants.Stage) { r.stages = append(r.stages, s) }
func (r *recordingObserver) Outcome(o entity.ExtractionOutcome, _ time.Duration) {
	r.outcomes = append(r.outcomes, o)
}

func newProcessor(checker fingerprint.ExistenceChecker, rec entities.Recognizer, opts ...Option) *Processor {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewProcessor(checker, rec, nil, opts...)
}

func doc(text string) Document {
	return Document{Filename: "order.pdf", Text: text, Content: bytes.NewReader([]byte(text))}
}

func TestExtract_DiscoveryScenario(t *testing.T) {
	text := "Case No. 24-CV-1001\nDiscovery deadline: January 5, 2030\n"
	p := newProcessor(newMemStore(), fixedRecognizer{{Label: entities.LabelCourt, Text: "District Court"}})

	out := p.Extract(context.Background(), doc(text))

	require.True(t, out.Success, out.ErrorMessage())
	assert.False(t, out.NeedsReview)
	assert.Nil(t, out.Error)
	assert.Empty(t, out.ErrorKind)
	require.NotNil(t, out.Data)

	d := out.Data
	assert.Equal(t, "24-CV-1001", d.CaseNumber)
	assert.Equal(t, constants.SchedulingOrder, d.DocumentType)
	assert.Equal(t, "order.pdf", d.OriginalFilename)
	assert.Len(t, d.FileHash, 64)
	assert.Equal(t, fixedNow, d.ExtractionTimestamp)
	require.NotNil(t, d.CourtName)
	assert.Equal(t, "District Court", *d.CourtName)
	assert.Nil(t, d.JudgeName)

	require.Len(t, d.Deadlines, 1)
	dl := d.Deadlines[0]
	assert.Equal(t, constants.Discovery, dl.Category)
	assert.Equal(t, 0.9, dl.ConfidenceScore)
	assert.Equal(t, constants.DeadlineActive, dl.Status)
	assert.True(t, dl.DueDate.Equal(time.Date(2030, time.January, 5, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, dl.Description)
	assert.Equal(t, text, *dl.Description)
	assert.Equal(t, "Case No. 24-CV-1001\nDiscovery deadline: January 5, 2030", dl.Title)
}

func TestExtract_FallbackCategoryNeedsReview(t *testing.T) {
	out := newProcessor(newMemStore(), nil).Extract(context.Background(), doc("Case No. 9\nFees payable by 2030-06-01"))
	require.True(t, out.Success)
	assert.True(t, out.NeedsReview)
	require.Len(t, out.Data.Deadlines, 1)
	assert.Equal(t, constants.Other, out.Data.Deadlines[0].Category)
	assert.Equal(t, 0.7, out.Data.Deadlines[0].ConfidenceScore)
}

func TestExtract_NoDatesStillSucceeds(t *testing.T) {
	out := newProcessor(newMemStore(), nil).Extract(context.Background(), doc("Case No. 9 order without dates"))
	require.True(t, out.Success)
	assert.False(t, out.NeedsReview)
	assert.Empty(t, out.Data.Deadlines)
}

func TestExtract_PastDueDate(t *testing.T) {
	out := newProcessor(newMemStore(), nil).Extract(context.Background(), doc("Case No. 9\nHearing on January 5, 2000"))
	assert.False(t, out.Success)
	assert.True(t, out.NeedsReview)
	assert.Nil(t, out.Data)
	assert.Equal(t, constants.FailureValidation, out.ErrorKind)
	assert.Contains(t, out.ErrorMessage(), constants.MsgPastDueDate)
}

func TestExtract_MissingCaseNumber(t *testing.T) {
	out := newProcessor(newMemStore(), nil).Extract(context.Background(), doc("Discovery deadline: January 5, 2030"))
	assert.False(t, out.Success)
	assert.True(t, out.NeedsReview)
	assert.Equal(t, constants.MsgMissingCaseNumber, out.ErrorMessage())
	assert.Equal(t, constants.FailureMissingField, out.ErrorKind)
}

func TestExtract_AmendedFlip(t *testing.T) {
	p := newProcessor(newMemStore(), nil)
	base := "Case No. 5\nSCHEDULING ORDER\nTrial set for 2030-09-01"

	orig := p.Extract(context.Background(), doc(base))
	require.True(t, orig.Success)
	assert.Equal(t, constants.SchedulingOrder, orig.Data.DocumentType)

	amended := p.Extract(context.Background(), doc("AMENDED "+base))
	require.True(t, amended.Success)
	assert.Equal(t, constants.AmendedSchedulingOrder, amended.Data.DocumentType)
}

func TestExtract_IdempotentDedupe(t *testing.T) {
	store := newMemStore()
	p := newProcessor(store, nil)
	text := "Case No. 24-CV-1001\nDiscovery deadline: January 5, 2030"

	first := p.Extract(context.Background(), doc(text))
	require.True(t, first.Success)
	store.add(first.Data.FileHash)

	second := p.Extract(context.Background(), doc(text))
	assert.False(t, second.Success)
	assert.False(t, second.NeedsReview)
	assert.Nil(t, second.Data)
	assert.Equal(t, constants.MsgDuplicateDocument, second.ErrorMessage())
	assert.True(t, second.Duplicate())
}

func TestExtract_StoreErrorIsUnexpected(t *testing.T) {
	out := newProcessor(errStore{}, nil).Extract(context.Background(), doc("Case No. 1"))
	assert.False(t, out.Success)
	assert.True(t, out.NeedsReview)
	assert.Equal(t, constants.FailureUnexpected, out.ErrorKind)
	assert.Contains(t, out.ErrorMessage(), "connection refused")
}

func TestExtract_PanicIsCaptured(t *testing.T) {
	obs := &recordingObserver{}
	p := newProcessor(newMemStore(), panicRecognizer{}, WithObserver(obs))

	var out entity.ExtractionOutcome
	require.NotPanics(t, func() {
		out = p.Extract(context.Background(), doc("Case No. 1"))
	})
	assert.False(t, out.Success)
	assert.True(t, out.NeedsReview)
	assert.Equal(t, constants.FailureUnexpected, out.ErrorKind)
	assert.Equal(t, "model crashed", out.ErrorMessage())
	require.Len(t, obs.outcomes, 1)
}

func TestExtract_NilContent(t *testing.T) {
	out := newProcessor(newMemStore(), nil).Extract(context.Background(), Document{Text: "Case No. 1"})
	assert.False(t, out.Success)
	assert.True(t, out.NeedsReview)
}

func TestExtract_StageOrder(t *testing.T) {
	obs := &recordingObserver{}
	p := newProcessor(newMemStore(), nil, WithObserver(obs))
	out := p.Extract(context.Background(), doc("Case No. 1\nTrial 2030-01-05"))
	require.True(t, out.Success)

	assert.Equal(t, []constants.Stage{
		constants.StageStart,
		constants.StageHashChecked,
		constants.StageEntitiesExtracted,
		constants.StageDatesExtracted,
		constants.StageClassified,
		constants.StageTypeDetermined,
		constants.StageReviewEvaluated,
		constants.StageDone,
	}, obs.stages)
}

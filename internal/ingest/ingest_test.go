package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/core/textextract"
)

type stubText struct {
	calls int
	err   error
}

func (s *stubText) ExtractBytes(_ context.Context, _ string, data []byte) (textextract.Result, error) {
	s.calls++
	if s.err != nil {
		return textextract.Result{}, s.err
	}
	return textextract.Result{Text: string(data), Method: textextract.MethodPlain}, nil
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoader_LoadPath(t *testing.T) {
	p := write(t, t.TempDir(), "order.TXT", "Case No. 24-CV-1001")
	text := &stubText{}
	src, err := NewLoader(text, 0, nil).LoadPath(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "order.TXT", src.Filename)
	assert.Equal(t, "txt", src.Ext)
	assert.Equal(t, "Case No. 24-CV-1001", src.Text)
	assert.Equal(t, []byte("Case No. 24-CV-1001"), src.Data)
	assert.True(t, filepath.IsAbs(src.Path))
	assert.Equal(t, 1, text.calls)
}

func TestLoader_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		maxBytes int64
	}{
		{"unsupported extension", "order.docx", "x", 0},
		{"no extension", "order", "x", 0},
		{"empty", "order.txt", "", 0},
		{"too large", "order.txt", "0123456789", 5},
		{"not a pdf", "order.pdf", "plain text pretending", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := &stubText{}
			_, err := NewLoader(text, tt.maxBytes, nil).LoadBytes(context.Background(), tt.filename, []byte(tt.data))
			require.Error(t, err)
			var appErr *common.AppError
			assert.True(t, errors.As(err, &appErr))
			assert.Zero(t, text.calls)
		})
	}
}

func TestLoader_TextError(t *testing.T) {
	_, err := NewLoader(&stubText{err: errors.New("boom")}, 0, nil).LoadBytes(context.Background(), "a.txt", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestWalkDocuments(t *testing.T) {
	root := t.TempDir()
	write(t, root, "b.pdf", "x")
	write(t, root, "a.txt", "x")
	write(t, root, "notes.md", "x")
	write(t, root, "nested/c.PDF", "x")
	write(t, root, ".hidden/d.pdf", "x")

	var seen []string
	stats, err := WalkDocuments(context.Background(), root, true, func(path string) error {
		rel, _ := filepath.Rel(root, path)
		seen = append(seen, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.pdf", "nested/c.PDF"}, seen)
	assert.EqualValues(t, 3, stats.Matched)
	assert.Zero(t, stats.Failed)
}

func TestWalkDocuments_Errors(t *testing.T) {
	_, err := WalkDocuments(context.Background(), " ", true, func(string) error { return nil })
	require.Error(t, err)

	_, err = WalkDocuments(context.Background(), filepath.Join(t.TempDir(), "missing"), true, func(string) error { return nil })
	require.Error(t, err)

	root := t.TempDir()
	write(t, root, "a.txt", "x")
	stop := errors.New("stop")
	_, err = WalkDocuments(context.Background(), root, true, func(string) error { return stop })
	assert.ErrorIs(t, err, stop)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = WalkDocuments(ctx, root, true, func(string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/x/.git"))
	assert.False(t, IsHidden("."))
	assert.False(t, IsHidden("/x/order.pdf"))
}

func TestStartWatcher_InitialScan(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.txt", "x")
	write(t, root, "skip.md", "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true}, nil)
	require.NoError(t, err)

	got := <-events
	assert.Equal(t, filepath.Join(root, "a.txt"), got)

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	require.Error(t, err)
}

func TestLoader_LoadWithText(t *testing.T) {
	text := &stubText{}
	src, err := NewLoader(text, 0, nil).LoadWithText("order.txt", []byte("raw"), "Case No. 9")
	require.NoError(t, err)
	assert.Equal(t, "Case No. 9", src.Text)
	assert.Equal(t, MethodProvided, src.Method)
	assert.Zero(t, text.calls)

	_, err = NewLoader(text, 0, nil).LoadWithText("order.exe", []byte("raw"), "x")
	require.Error(t, err)
}

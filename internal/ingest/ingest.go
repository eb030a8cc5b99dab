// Package ingest discovers scheduling-order files and loads them into memory with
// their text.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/core/textextract"
)

// Source is a loaded document ready for the pipeline.
type Source struct {
	Path     string
	Filename string
	Ext      string
	Data     []byte
	Text     string
	Pages    int
	Method   string
}

// TextExtractor is satisfied by textextract.Extractor.
type TextExtractor interface {
	ExtractBytes(ctx context.Context, filename string, data []byte) (textextract.Result, error)
}

var disablePDFConfig sync.Once

// Loader reads documents and extracts their text.
type Loader struct {
	text     TextExtractor
	maxBytes int64
	logger   *slog.Logger
}

func NewLoader(text TextExtractor, maxBytes int64, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	disablePDFConfig.Do(api.DisableConfigDir)
	return &Loader{text: text, maxBytes: maxBytes, logger: logger}
}

// LoadPath reads a file from disk.
func (l *Loader) LoadPath(ctx context.Context, path string) (Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Source{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Source{}, err
	}
	if l.maxBytes > 0 && info.Size() > l.maxBytes {
		return Source{}, common.NewAppError("FILE_TOO_LARGE", fmt.Sprintf("%s exceeds %d bytes", filepath.Base(abs), l.maxBytes), common.ErrInvalidInput)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return Source{}, err
	}
	src, err := l.LoadBytes(ctx, filepath.Base(abs), data)
	src.Path = abs
	return src, err
}

// LoadBytes validates in-memory content and extracts its text.
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (Source, error) {
	src, err := l.check(filename, data)
	if err != nil {
		return src, err
	}
	res, err := l.text.ExtractBytes(ctx, filename, data)
	if err != nil {
		return src, fmt.Errorf("extract text from %s: %w", filename, err)
	}
	src.Text = res.Text
	src.Method = res.Method
	if src.Pages == 0 {
		src.Pages = res.Pages
	}
	l.logger.Debug("ingest.loaded", "filename", filename, "bytes", len(data), "pages", src.Pages, "method", res.Method)
	return src, nil
}

// LoadWithText validates content whose text was extracted upstream.
func (l *Loader) LoadWithText(filename string, data []byte, text string) (Source, error) {
	src, err := l.check(filename, data)
	if err != nil {
		return src, err
	}
	src.Text = text
	src.Method = MethodProvided
	return src, nil
}

// MethodProvided marks text supplied by the caller.
const MethodProvided = "provided"

func (l *Loader) check(filename string, data []byte) (Source, error) {
	ext := constants.NormalizeExt(filepath.Ext(filename))
	src := Source{Filename: filename, Ext: ext, Data: data}
	if !constants.IsAllowedExt(ext) {
		return src, common.NewAppError("UNSUPPORTED_FILE", fmt.Sprintf("unsupported or missing extension %q", ext), common.ErrInvalidInput)
	}
	if len(data) == 0 {
		return src, common.NewAppError("EMPTY_FILE", filename+" is empty", common.ErrInvalidInput)
	}
	if l.maxBytes > 0 && int64(len(data)) > l.maxBytes {
		return src, common.NewAppError("FILE_TOO_LARGE", fmt.Sprintf("%s exceeds %d bytes", filename, l.maxBytes), common.ErrInvalidInput)
	}
	if ext == "pdf" {
		pages, err := api.PageCount(bytes.NewReader(data), nil)
		if err != nil {
			return src, common.NewAppError("INVALID_PDF", filename+" is not a readable PDF", err)
		}
		src.Pages = pages
	}
	return src, nil
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

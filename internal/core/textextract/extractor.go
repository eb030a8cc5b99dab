// Package textextract turns stored documents (PDF or plain text) into normalized text.
package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/schedorder/constants"
)

// Methods reported in Result.Method.
const (
	MethodPlain   = "plain-text"
	MethodPDFText = "pdf-text"
	MethodPDFOCR  = "pdf-ocr"
)

type Config struct {
	Pdftotext string
	Pdftoppm  string
	Tesseract string

	TesseractLang string
	TessdataDir   string
	DPI           int
	MaxPages      int

	// OCRFallback rasterizes and OCRs PDFs whose text layer is empty.
	OCRFallback bool
	Timeout     time.Duration
}

type Result struct {
	Text     string
	Pages    int
	Method   string
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Extractor)

// WithRunner swaps the command runner, mainly for tests.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	e := &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract picks a strategy from the file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	ext := constants.NormalizeExt(filepath.Ext(path))
	var (
		res Result
		err error
	)
	switch ext {
	case "txt":
		res, err = e.extractPlain(path)
	case "pdf":
		res, err = e.extractPDF(ctx, path)
	default:
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	res.Duration = time.Since(start)
	if err == nil {
		e.logger.Debug("textextract.done", "path", path, "method", res.Method, "pages", res.Pages, "chars", len(res.Text))
	}
	return res, err
}

// ExtractBytes extracts from in-memory content, spilling PDFs to a temp file for the
// command-line tools.
func (e *Extractor) ExtractBytes(ctx context.Context, filename string, data []byte) (Result, error) {
	ext := constants.NormalizeExt(filepath.Ext(filename))
	if ext == "txt" {
		return Result{Text: Normalize(string(data)), Pages: 1, Method: MethodPlain}, nil
	}

	tmp, err := os.CreateTemp("", "schedorder-*."+ext)
	if err != nil {
		return Result{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Result{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("close temp file: %w", err)
	}
	return e.Extract(ctx, tmp.Name())
}

func (e *Extractor) extractPlain(path string) (Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read text file: %w", err)
	}
	return Result{Text: Normalize(string(b)), Pages: 1, Method: MethodPlain}, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return Result{Warnings: []string{string(errb)}}, fmt.Errorf("pdftotext: %w", err)
	}
	raw := string(out)
	res := Result{
		Text:   Normalize(raw),
		Pages:  1 + strings.Count(strings.TrimRight(raw, "\f"), "\f"),
		Method: MethodPDFText,
	}
	if res.Text != "" || !e.cfg.OCRFallback {
		return res, nil
	}

	e.logger.Info("textextract.ocr_fallback", "path", path)
	return e.pdfToOCR(ctx, path)
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (Result, error) {
	tmpDir, err := os.MkdirTemp("", "schedorder-pp-*")
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return Result{Warnings: []string{string(errb)}}, fmt.Errorf("pdftoppm: %w", err)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return Result{Warnings: []string{"pdftoppm produced no images"}}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, err := e.tesseract(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
	}
	return Result{Text: Normalize(b.String()), Pages: len(matches), Method: MethodPDFOCR, Warnings: warns}, nil
}

func (e *Extractor) tesseract(ctx context.Context, img string) (string, error) {
	args := []string{img, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w: %s", filepath.Base(img), err, truncate(string(errb), 512))
	}
	return string(out), nil
}

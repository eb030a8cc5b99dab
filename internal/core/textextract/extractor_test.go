package textextract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls   []call
	outputs map[string]string
	fail    map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.fail[name] {
		return nil, []byte("boom"), errors.New("exit status 1")
	}
	if name == "pdftoppm" {
		prefix := args[len(args)-1]
		for _, p := range []string{"-1.png", "-2.png"} {
			if err := os.WriteFile(prefix+p, []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
	}
	return []byte(f.outputs[name]), nil, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestExtract_PlainText(t *testing.T) {
	p := writeFile(t, "order.txt", "Case No.  24-CV-1001\r\n\r\n\r\n\r\nTrial:\t01/05/2030  ")
	res, err := NewExtractor(Config{}, nil).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, MethodPlain, res.Method)
	assert.Equal(t, "Case No. 24-CV-1001\n\nTrial: 01/05/2030", res.Text)
}

func TestExtract_PDFTextLayer(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"pdftotext": "Case No. 7\fpage two\f"}}
	p := writeFile(t, "order.pdf", "%PDF")
	res, err := NewExtractor(Config{}, nil, WithRunner(runner)).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, MethodPDFText, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "Case No. 7\npage two", res.Text)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix", p, "-"}, runner.calls[0].args)
}

func TestExtract_PDFFallsBackToOCR(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"pdftotext": "  \f", "tesseract": "Case No. 8"}}
	p := writeFile(t, "scan.pdf", "%PDF")
	res, err := NewExtractor(Config{OCRFallback: true}, nil, WithRunner(runner)).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, MethodPDFOCR, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "Case No. 8\nCase No. 8", res.Text)
}

func TestExtract_PDFNoFallback(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"pdftotext": ""}}
	p := writeFile(t, "scan.pdf", "%PDF")
	res, err := NewExtractor(Config{}, nil, WithRunner(runner)).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Len(t, runner.calls, 1)
}

func TestExtract_ToolFailure(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{"pdftotext": true}}
	p := writeFile(t, "order.pdf", "%PDF")
	_, err := NewExtractor(Config{}, nil, WithRunner(runner)).Extract(context.Background(), p)
	assert.Error(t, err)
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	_, err := NewExtractor(Config{}, nil).Extract(context.Background(), "order.docx")
	assert.Error(t, err)
}

func TestExtractBytes_Text(t *testing.T) {
	res, err := NewExtractor(Config{}, nil).ExtractBytes(context.Background(), "a.TXT", []byte("Case No. 1 "))
	require.NoError(t, err)
	assert.Equal(t, "Case No. 1", res.Text)
}

func TestNormalize_KeepsDigits(t *testing.T) {
	assert.Equal(t, "01/05/2030 due", Normalize("01/05/2030   due\n\n\n"))
}

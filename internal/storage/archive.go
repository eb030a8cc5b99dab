// Package storage archives original scheduling-order files in object storage.
package storage

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/schedorder/constants"
)

// KeyPrefix is the top-level folder for archived orders.
const KeyPrefix = "scheduling-orders"

// Archiver stores raw documents.
type Archiver interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

// ObjectKey builds scheduling-orders/<case_number>/<file_hash><ext>.
func ObjectKey(caseNumber, fileHash, filename string) string {
	cn := strings.Trim(unsafeKeyChars.ReplaceAllString(caseNumber, "_"), "_")
	if cn == "" {
		cn = "unknown"
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return KeyPrefix + "/" + cn + "/" + fileHash + ext
}

// ContentType maps an allowed extension to a MIME type.
func ContentType(filename string) string {
	switch constants.NormalizeExt(filepath.Ext(filename)) {
	case "pdf":
		return "application/pdf"
	case "txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

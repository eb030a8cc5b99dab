// Package fingerprint computes content hashes and gates already-stored documents.
package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
)

// BlockSize is the read size used while hashing.
const BlockSize = 4096

// ExistenceChecker answers whether a document with the given hash was already stored.
type ExistenceChecker interface {
	ExistsByHash(ctx context.Context, fileHash string) (bool, error)
}

// Hash returns the lowercase hex SHA-256 of everything in r, read in BlockSize chunks.
func Hash(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, BlockSize)
	if _, err := io.CopyBuffer(h, onlyReader{r}, buf); err != nil {
		return "", fmt.Errorf("hash content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// onlyReader hides WriterTo so CopyBuffer actually uses the fixed buffer.
type onlyReader struct{ io.Reader }

// Gate hashes a document and consults the store.
type Gate struct {
	checker ExistenceChecker
	logger  *slog.Logger
}

func NewGate(checker ExistenceChecker, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{checker: checker, logger: logger}
}

// Check returns the content hash and whether the store already holds it.
// A nil checker treats every document as new.
func (g *Gate) Check(ctx context.Context, r io.Reader) (string, bool, error) {
	hash, err := Hash(r)
	if err != nil {
		return "", false, err
	}
	if g.checker == nil {
		return hash, false, nil
	}
	exists, err := g.checker.ExistsByHash(ctx, hash)
	if err != nil {
		return hash, false, fmt.Errorf("check existing document: %w", err)
	}
	if exists {
		g.logger.Info("fingerprint.duplicate", "file_hash", hash)
	}
	return hash, exists, nil
}

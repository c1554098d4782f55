package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Delete when the reference no longer resolves to
// stored bytes.
var ErrNotFound = errors.New("storage: object not found")

// AssetStore is the byte-storage collaborator behind image records. The
// engine only needs two verbs: store bytes at a suggested path and release
// bytes by reference. Everything else (replication, versioning, CDN) lives
// behind the implementation.
type AssetStore interface {
	// Store persists the reader's bytes and returns an opaque reference the
	// caller can later hand to Delete.
	Store(ctx context.Context, r io.Reader, suggestedPath string) (string, error)
	// Delete releases the bytes behind a reference. Returns ErrNotFound if
	// nothing is stored there.
	Delete(ctx context.Context, reference string) error
}

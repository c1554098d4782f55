package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/renohaus/renohaus-backend/pkg/config"
)

// DiskStore keeps asset bytes under a root directory on the local
// filesystem. References are root-relative slash paths.
type DiskStore struct {
	root string
}

// NewDiskStore validates the root directory and returns a store rooted there.
func NewDiskStore(cfg config.StorageConfig) (*DiskStore, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &DiskStore{root: cfg.Root}, nil
}

func (s *DiskStore) Store(ctx context.Context, r io.Reader, suggestedPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref := cleanReference(suggestedPath)
	if ref == "" {
		return "", fmt.Errorf("suggested path is required")
	}

	full := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating asset directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("creating asset file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("writing asset bytes: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("flushing asset bytes: %w", err)
	}
	return ref, nil
}

func (s *DiskStore) Delete(ctx context.Context, reference string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ref := cleanReference(reference)
	if ref == "" {
		return ErrNotFound
	}
	full := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("removing asset file: %w", err)
	}
	return nil
}

// Ping verifies the root directory is still accessible.
func (s *DiskStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(s.root); err != nil {
		return fmt.Errorf("storage root unavailable: %w", err)
	}
	return nil
}

// cleanReference normalizes a slash path and refuses escapes above the root.
func cleanReference(p string) string {
	cleaned := path.Clean("/" + strings.ReplaceAll(strings.TrimSpace(p), "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "." || cleaned == "" {
		return ""
	}
	return cleaned
}

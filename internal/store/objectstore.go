package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lectern-ai/lectern/internal/logger"
)

// DiskObjectStore keeps uploaded blobs on the local filesystem and returns
// URLs under a configured public base. It satisfies the blob-store contract
// the upload path needs; nothing in the answering path reads from it.
type DiskObjectStore struct {
	root       string
	publicBase string
}

// NewDiskObjectStore creates the upload directory if needed.
func NewDiskObjectStore(root, publicBase string) (*DiskObjectStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskObjectStore{
		root:       root,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// Put writes data under path and returns its public URL.
func (s *DiskObjectStore) Put(ctx context.Context, path string, data []byte) (string, error) {
	clean := filepath.Base(path)
	dest := filepath.Join(s.root, clean)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store object %s: %w", clean, err)
	}
	url := s.publicBase + "/" + clean
	logger.Debug("Stored object %s (%d bytes) at %s", clean, len(data), url)
	return url, nil
}

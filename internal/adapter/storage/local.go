package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

// LocalStore keeps objects under a directory on disk. Dev fallback when
// no MinIO endpoint is configured.
type LocalStore struct {
	root string
}

func NewLocal(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("op=storage.NewLocal: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// path maps a key to a filesystem path, refusing traversal outside root.
func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("%w: bad object key %q", domain.ErrInvalidArgument, key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *LocalStore) Put(_ domain.Context, key, _ string, r io.Reader, _ int64) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("op=storage.Put key=%s: %w", key, err)
	}
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("op=storage.Put key=%s: %w", key, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("op=storage.Put write key=%s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Get(_ domain.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("op=storage.Get key=%s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("op=storage.Get key=%s: %w", key, err)
	}
	return data, nil
}

package blob

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// FilesystemStore stores blobs as plain files under a root directory.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore builds the local adapter, creating the root
// directory if it does not exist yet.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, newError(Unavailable, "", err)
	}
	return &FilesystemStore{root: root}, nil
}

func (s *FilesystemStore) Put(ctx context.Context, key string, payload []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return s.classify(key, err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return s.classify(key, err)
	}
	return nil
}

func (s *FilesystemStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, s.classify(key, err)
	}
	return payload, nil
}

func (s *FilesystemStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.path(key)
	if err := os.Remove(path); err != nil {
		return s.classify(key, err)
	}
	s.pruneEmptyDirs(filepath.Dir(path))
	return nil
}

func (s *FilesystemStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, newError(Unavailable, key, err)
}

func (s *FilesystemStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// pruneEmptyDirs removes now-empty intermediate directories between a
// deleted file and the root. Stops at the first non-empty directory.
func (s *FilesystemStore) pruneEmptyDirs(dir string) {
	for dir != s.root && len(dir) > len(s.root) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (s *FilesystemStore) classify(key string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return newError(NotFound, key, err)
	case errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT):
		return newError(QuotaExceeded, key, err)
	default:
		return newError(Unavailable, key, err)
	}
}

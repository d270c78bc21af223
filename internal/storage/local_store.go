package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps bodies as text files under a root directory.
type LocalStore struct {
	root string
	refs *referenceSource
}

// NewLocalStore creates a LocalStore. The root directory is created if it
// does not exist.
func NewLocalStore(root string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "resources/news/content"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	return &LocalStore{root: root, refs: newReferenceSource()}, nil
}

// Root returns the content directory.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Store(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create content dir: %w", err)
	}

	ref := s.refs.next()
	path := filepath.Join(s.root, ref)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("%w: %s", ErrReferenceCollision, ref)
	}
	if err != nil {
		return "", fmt.Errorf("create content file: %w", err)
	}

	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write content file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close content file: %w", err)
	}
	return ref, nil
}

func (s *LocalStore) Load(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkReference(ref); err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(s.root, ref))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrContentNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("read content file: %w", err)
	}
	return string(data), nil
}

// Delete removes the blob. A missing blob is not an error.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkReference(ref); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, ref))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove content file: %w", err)
	}
	return nil
}

var _ ContentStore = (*LocalStore)(nil)

package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps bodies in process memory. Used in tests and throwaway dev runs.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]string
	refs  *referenceSource
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string]string{}, refs: newReferenceSource()}
}

func (s *MemoryStore) Store(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := s.refs.next()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blobs[ref]; exists {
		return "", fmt.Errorf("%w: %s", ErrReferenceCollision, ref)
	}
	s.blobs[ref] = text
	return ref, nil
}

func (s *MemoryStore) Load(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.blobs[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrContentNotFound, ref)
	}
	return text, nil
}

func (s *MemoryStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, ref)
	return nil
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

var _ ContentStore = (*MemoryStore)(nil)

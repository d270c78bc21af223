package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/news-portal/internal/config"
)

var (
	// ErrContentNotFound is returned by Load when no blob exists for the reference.
	ErrContentNotFound = errors.New("storage: content not found")
	// ErrReferenceCollision is returned by Store when the generated reference is
	// already taken. It is never retried.
	ErrReferenceCollision = errors.New("storage: content reference collision")
	// ErrInvalidReference is returned for references this package did not issue.
	ErrInvalidReference = errors.New("storage: invalid content reference")
)

// ContentStore persists article bodies outside the news row and hands back an
// opaque reference.
type ContentStore interface {
	Store(ctx context.Context, text string) (string, error)
	Load(ctx context.Context, ref string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// New instantiates the backend selected by configuration.
func New(ctx context.Context, cfg config.ContentConfig) (ContentStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", config.ContentBackendLocal:
		store, err := NewLocalStore(cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.ContentBackendS3:
		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.ContentBackendMinIO:
		store, err := NewMinIOStore(ctx, cfg.MinIO)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.ContentBackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported content backend: %s", cfg.Backend)
	}
}

var referencePattern = regexp.MustCompile(`^news_[0-9]+\.txt$`)

func checkReference(ref string) error {
	if !referencePattern.MatchString(ref) {
		return fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	return nil
}

// referenceSource issues news_<unix-nanos>.txt names that strictly increase
// within the process.
type referenceSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newReferenceSource() *referenceSource {
	return &referenceSource{now: time.Now}
}

func (r *referenceSource) next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.now().UnixNano()
	if n <= r.last {
		n = r.last + 1
	}
	r.last = n
	return fmt.Sprintf("news_%d.txt", n)
}

func joinKey(prefix, ref string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ref
	}
	return prefix + "/" + ref
}

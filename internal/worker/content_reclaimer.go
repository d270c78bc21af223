package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/news-portal/internal/events"
	"github.com/spec-kit/news-portal/internal/storage"
)

// ContentReclaimer deletes body blobs that no committed news row references
// any more: the body of a deleted item and the body replaced by an update.
type ContentReclaimer struct {
	store  storage.ContentStore
	logger *zap.Logger
	queue  chan string

	mu      sync.Mutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewContentReclaimer creates a reclaimer with a queue of the given size.
func NewContentReclaimer(store storage.ContentStore, logger *zap.Logger, buffer int) *ContentReclaimer {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentReclaimer{store: store, logger: logger.Named("reclaimer"), queue: make(chan string, buffer)}
}

// Register subscribes to the events that orphan a blob.
func (r *ContentReclaimer) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventNewsDeleted, func(_ context.Context, e events.Event) error {
		if p, ok := e.Payload.(events.NewsDeletedPayload); ok {
			r.enqueue(p.ContentRef)
		}
		return nil
	})
	dispatcher.Subscribe(events.EventNewsSaved, func(_ context.Context, e events.Event) error {
		if p, ok := e.Payload.(events.NewsSavedPayload); ok {
			r.enqueue(p.ReplacedRef)
		}
		return nil
	})
}

// Start launches the background deleter. It stops when ctx is done or Stop
// is called.
func (r *ContentReclaimer) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.closed {
		return
	}
	r.started = true
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case ref, ok := <-r.queue:
				if !ok {
					return
				}
				r.reclaim(ctx, ref)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop closes the queue and waits for queued deletions to finish.
func (r *ContentReclaimer) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	started := r.started
	r.mu.Unlock()

	if started {
		r.wg.Wait()
	}
	for ref := range r.queue {
		r.reclaim(context.Background(), ref)
	}
}

func (r *ContentReclaimer) enqueue(ref string) {
	if ref == "" {
		return
	}
	r.mu.Lock()
	if !r.closed && r.started {
		select {
		case r.queue <- ref:
			r.mu.Unlock()
			return
		default:
		}
	}
	r.mu.Unlock()
	// Not running or backed up: delete inline.
	r.reclaim(context.Background(), ref)
}

func (r *ContentReclaimer) reclaim(ctx context.Context, ref string) {
	if err := r.store.Delete(context.WithoutCancel(ctx), ref); err != nil {
		r.logger.Warn("failed to reclaim news body", zap.String("content_ref", ref), zap.Error(err))
		return
	}
	r.logger.Debug("reclaimed news body", zap.String("content_ref", ref))
}

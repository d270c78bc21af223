package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/news-portal/internal/domain"
	"github.com/spec-kit/news-portal/internal/events"
	"github.com/spec-kit/news-portal/internal/repository/memory"
	"github.com/spec-kit/news-portal/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// flakyContent fails Load for references listed in broken.
type flakyContent struct {
	*storage.MemoryStore
	broken map[string]bool
}

func (f *flakyContent) Load(ctx context.Context, ref string) (string, error) {
	if f.broken[ref] {
		return "", errors.New("disk read error")
	}
	return f.MemoryStore.Load(ctx, ref)
}

type fixture struct {
	store    *memory.Store
	content  *flakyContent
	events   *recorder
	groups   []domain.NewsGroup
	news     *NewsService
	comments *CommentService
	accounts *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	groups := store.SeedGroups("Politics", "Sport")
	content := &flakyContent{MemoryStore: storage.NewMemoryStore(), broken: map[string]bool{}}

	rec := &recorder{}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{
		events.EventNewsSaved, events.EventNewsDeleted,
		events.EventCommentAdded, events.EventCommentEdited, events.EventCommentToggled, events.EventCommentDeleted,
		events.EventUserRegistered, events.EventUserUpdated, events.EventUserDeleted,
	} {
		dispatcher.Subscribe(et, rec.handle)
	}

	logger := zap.NewNop()
	return &fixture{
		store:   store,
		content: content,
		events:  rec,
		groups:  groups,
		news: NewNewsService(NewsDependencies{
			UnitOfWork: store,
			Content:    content,
			Dispatcher: dispatcher,
			Logger:     logger,
		}),
		comments: NewCommentService(CommentDependencies{
			UnitOfWork: store,
			Dispatcher: dispatcher,
			Logger:     logger,
		}),
		accounts: NewAccountService(AccountDependencies{
			UnitOfWork: store,
			Dispatcher: dispatcher,
			Logger:     logger,
			BcryptCost: bcrypt.MinCost,
		}),
	}
}

// addUser inserts an account directly into the store.
func (f *fixture) addUser(t *testing.T, email string, role domain.Role, author bool) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        email,
		Role:         role,
		Active:       true,
		Author:       author,
		Name:         email,
		RegisteredAt: time.Now().UTC(),
	}
	require.NoError(t, f.store.Repos().Users.Create(context.Background(), u))
	return u
}

func (f *fixture) publish(t *testing.T, actor *domain.User, title, body string, published bool) *domain.News {
	t.Helper()
	n, err := f.news.Save(context.Background(), actor, NewsInput{
		Title:     title,
		Body:      &body,
		GroupID:   f.groups[0].ID,
		Published: published,
	})
	require.NoError(t, err)
	return n
}

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := current
		current = current.Add(step)
		return now
	}
}

package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/news-portal/internal/domain"
	"github.com/spec-kit/news-portal/internal/events"
	"github.com/spec-kit/news-portal/internal/repository/memory"
	"github.com/spec-kit/news-portal/internal/service"
	"github.com/spec-kit/news-portal/internal/storage"
)

func TestContentReclaimerDeletesOrphanedBodies(t *testing.T) {
	store := storage.NewMemoryStore()
	deleted, err := store.Store(context.Background(), "deleted item body")
	require.NoError(t, err)
	replaced, err := store.Store(context.Background(), "old body")
	require.NoError(t, err)
	current, err := store.Store(context.Background(), "new body")
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher()
	reclaimer := NewContentReclaimer(store, zap.NewNop(), 4)
	reclaimer.Register(dispatcher)
	reclaimer.Start(context.Background())

	require.NoError(t, dispatcher.Publish(context.Background(),
		events.New(events.EventNewsDeleted, "n1", nil, events.NewsDeletedPayload{ContentRef: deleted})))
	require.NoError(t, dispatcher.Publish(context.Background(),
		events.New(events.EventNewsSaved, "n2", nil, events.NewsSavedPayload{ContentRef: current, ReplacedRef: replaced})))
	require.NoError(t, dispatcher.Publish(context.Background(),
		events.New(events.EventNewsSaved, "n3", nil, events.NewsSavedPayload{ContentRef: current})))
	reclaimer.Stop()

	assert.Equal(t, 1, store.Len())
	body, err := store.Load(context.Background(), current)
	require.NoError(t, err)
	assert.Equal(t, "new body", body)
}

func TestContentReclaimerWithoutStartDeletesInline(t *testing.T) {
	store := storage.NewMemoryStore()
	ref, err := store.Store(context.Background(), "body")
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher()
	reclaimer := NewContentReclaimer(store, nil, 0)
	reclaimer.Register(dispatcher)

	require.NoError(t, dispatcher.Publish(context.Background(),
		events.New(events.EventNewsDeleted, "n1", nil, events.NewsDeletedPayload{ContentRef: ref})))
	assert.Zero(t, store.Len())

	reclaimer.Stop()
	reclaimer.Stop()
}

func TestStartAuditWorker(t *testing.T) {
	StartAuditWorker(nil)

	dispatcher := events.NewInMemoryDispatcher()
	StartAuditWorker(service.NewAuditService(dispatcher, zap.NewNop()))
	assert.NoError(t, dispatcher.Publish(context.Background(), events.New(events.EventUserRegistered, "u1", nil, events.UserPayload{Email: "a@b.c"})))
}

func TestNewsDeletionReclaimsBody(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	groups := repo.SeedGroups("Economy")
	admin := &domain.User{Email: "admin@example.com", Role: domain.RoleAdmin, Active: true}
	require.NoError(t, repo.Repos().Users.Create(ctx, admin))

	content := storage.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	reclaimer := NewContentReclaimer(content, zap.NewNop(), 8)
	reclaimer.Register(dispatcher)
	reclaimer.Start(ctx)

	news := service.NewNewsService(service.NewsDependencies{
		UnitOfWork: repo,
		Content:    content,
		Dispatcher: dispatcher,
	})
	v1, v2 := "first", "second"
	saved, err := news.Save(ctx, admin, service.NewsInput{Title: "Rates", Body: &v1, GroupID: groups[0].ID, Published: true})
	require.NoError(t, err)
	_, err = news.Save(ctx, admin, service.NewsInput{ID: saved.ID, Title: "Rates", Body: &v2, GroupID: groups[0].ID, Published: true})
	require.NoError(t, err)

	deleted, err := news.Delete(ctx, admin, saved.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	reclaimer.Stop()
	assert.Zero(t, content.Len())
}

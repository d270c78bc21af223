package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/news-portal/internal/domain"
	"github.com/spec-kit/news-portal/internal/repository"
)

func TestDoRollsBackOnError(t *testing.T) {
	store := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		require.NoError(t, repos.Users.Create(ctx, &domain.User{Email: "a@example.com"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	exists, err := store.Repos().Users.ExistsByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDoRollsBackOnPanic(t *testing.T) {
	store := New()
	ctx := context.Background()

	func() {
		defer func() { require.NotNil(t, recover()) }()
		_ = store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
			_ = repos.Users.Create(ctx, &domain.User{Email: "p@example.com"})
			panic("kaput")
		})
	}()

	_, err := store.Repos().Users.GetByEmail(ctx, "p@example.com")
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestUserEmailIsUnique(t *testing.T) {
	store := New()
	ctx := context.Background()
	users := store.Repos().Users

	require.NoError(t, users.Create(ctx, &domain.User{Email: "dup@example.com"}))
	err := users.Create(ctx, &domain.User{Email: "dup@example.com"})
	require.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestCommentsKeepInsertionOrderOnEqualTimestamps(t *testing.T) {
	store := New()
	ctx := context.Background()
	repos := store.Repos()
	group := store.SeedGroups("Sport")[0]

	user := &domain.User{Email: "c@example.com"}
	require.NoError(t, repos.Users.Create(ctx, user))
	news := &domain.News{Title: "t", Group: group}
	require.NoError(t, repos.News.Create(ctx, news))

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, text := range []string{"first", "second", "third"} {
		require.NoError(t, repos.Comments.Create(ctx, &domain.Comment{
			NewsID: news.ID, Author: domain.User{ID: user.ID}, Text: text, Active: true, CreatedAt: at,
		}))
	}

	list, err := repos.Comments.ListByNews(ctx, news.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].Text)
	assert.Equal(t, "third", list[2].Text)
	assert.Equal(t, "c@example.com", list[0].Author.Email)
}

func TestNewsDeleteRequiresCommentsGone(t *testing.T) {
	store := New()
	ctx := context.Background()
	repos := store.Repos()
	group := store.SeedGroups("Economy")[0]

	user := &domain.User{Email: "d@example.com"}
	require.NoError(t, repos.Users.Create(ctx, user))
	news := &domain.News{Title: "t", Group: group}
	require.NoError(t, repos.News.Create(ctx, news))
	require.NoError(t, repos.Comments.Create(ctx, &domain.Comment{NewsID: news.ID, Author: domain.User{ID: user.ID}, Text: "x"}))

	require.Error(t, repos.News.Delete(ctx, news.ID))

	n, err := repos.Comments.DeleteByNews(ctx, news.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, repos.News.Delete(ctx, news.ID))
}

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/news-portal/internal/persistence/migrations"
)

func newMockDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func stubGooseUp(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := gooseUpContext
	gooseUpContext = fn
	t.Cleanup(func() { gooseUpContext = orig })
}

func TestMigrate_Success(t *testing.T) {
	db := newMockDB(t)

	var gotDir string
	stubGooseUp(t, func(ctx context.Context, got *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		require.Same(t, db, got)
		gotDir = dir
		assert.Empty(t, opts)
		return nil
	})

	require.NoError(t, migrate(context.Background(), db))
	assert.Equal(t, ".", gotDir)
}

func TestMigrate_Error(t *testing.T) {
	db := newMockDB(t)
	boom := errors.New("boom")
	stubGooseUp(t, func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return boom
	})

	err := migrate(context.Background(), db)
	require.ErrorIs(t, err, boom)
}

func TestRunMigrations_SkipsWithoutPool(t *testing.T) {
	stubGooseUp(t, func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		t.Fatal("goose must not run without a pool")
		return nil
	})
	require.NoError(t, RunMigrations(context.Background(), nil, zap.NewNop()))
}

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	names, err := fs.Glob(migrations.Migrations, "*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{"00001_init_schema.sql", "00002_seed_news_groups.sql"}, names)

	body, err := fs.ReadFile(migrations.Migrations, names[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "CREATE TABLE comments")
}

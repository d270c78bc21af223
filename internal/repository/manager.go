package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/news-portal/internal/persistence"
)

// Repositories is the set of repositories bound to one DBTX, either the pool
// or an open transaction.
type Repositories struct {
	News     NewsRepository
	Groups   NewsGroupRepository
	Comments CommentRepository
	Users    UserRepository
}

// NewRepositories binds every repository to db.
func NewRepositories(db persistence.DBTX) Repositories {
	return Repositories{
		News:     NewNewsRepository(db),
		Groups:   NewNewsGroupRepository(db),
		Comments: NewCommentRepository(db),
		Users:    NewUserRepository(db),
	}
}

// UnitOfWork runs repository work atomically.
type UnitOfWork interface {
	// Repos returns repositories outside any transaction, for single-statement reads.
	Repos() Repositories
	// Do runs fn in a read-write transaction. An error or panic rolls everything back.
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	// Snapshot runs fn in a read-only repeatable-read transaction.
	Snapshot(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type pgUnitOfWork struct {
	pool persistence.Pool
}

// NewUnitOfWork returns a UnitOfWork over a pgx pool.
func NewUnitOfWork(pool persistence.Pool) UnitOfWork {
	return &pgUnitOfWork{pool: pool}
}

func (u *pgUnitOfWork) Repos() Repositories {
	return NewRepositories(u.pool)
}

func (u *pgUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return persistence.WithTx(ctx, u.pool, pgx.TxOptions{}, func(ctx context.Context, tx persistence.DBTX) error {
		return fn(ctx, NewRepositories(tx))
	})
}

func (u *pgUnitOfWork) Snapshot(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return persistence.WithTx(ctx, u.pool, persistence.ReadOnlySnapshot, func(ctx context.Context, tx persistence.DBTX) error {
		return fn(ctx, NewRepositories(tx))
	})
}

package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	execs      []string
	committed  bool
	rolledBack bool
	commitErr  error
}

func (f *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return f.commitErr
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx       *fakeTx
	opts     pgx.TxOptions
	beginErr error
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	b.opts = opts
	return b.tx, nil
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}

	err := WithTx(context.Background(), b, pgx.TxOptions{}, func(ctx context.Context, tx DBTX) error {
		_, err := tx.Exec(ctx, "INSERT INTO t VALUES (1)")
		return err
	})
	require.NoError(t, err)
	assert.True(t, b.tx.committed, "must commit on success")
	assert.False(t, b.tx.rolledBack)
	assert.Equal(t, []string{"INSERT INTO t VALUES (1)"}, b.tx.execs)
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	boom := errors.New("boom")

	err := WithTx(context.Background(), b, pgx.TxOptions{}, func(ctx context.Context, tx DBTX) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, b.tx.rolledBack, "must rollback when fn returns error")
	assert.False(t, b.tx.committed)
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}

	defer func() {
		r := recover()
		require.Equal(t, "kaput", r, "expected panic to propagate")
		assert.True(t, b.tx.rolledBack, "must rollback on panic")
		assert.False(t, b.tx.committed)
	}()

	_ = WithTx(context.Background(), b, pgx.TxOptions{}, func(ctx context.Context, tx DBTX) error {
		panic("kaput")
	})
}

func TestWithTx_BeginAndCommitErrors(t *testing.T) {
	beginErr := errors.New("no connection")
	err := WithTx(context.Background(), &fakeBeginner{beginErr: beginErr}, pgx.TxOptions{}, func(context.Context, DBTX) error {
		t.Fatal("fn must not run when begin fails")
		return nil
	})
	require.ErrorIs(t, err, beginErr)

	commitErr := errors.New("serialization failure")
	b := &fakeBeginner{tx: &fakeTx{commitErr: commitErr}}
	err = WithTx(context.Background(), b, pgx.TxOptions{}, func(context.Context, DBTX) error { return nil })
	require.ErrorIs(t, err, commitErr)
}

func TestWithTx_PassesOptions(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	require.NoError(t, WithTx(context.Background(), b, ReadOnlySnapshot, func(context.Context, DBTX) error { return nil }))
	assert.Equal(t, pgx.RepeatableRead, b.opts.IsoLevel)
	assert.Equal(t, pgx.ReadOnly, b.opts.AccessMode)
}

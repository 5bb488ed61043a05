package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"cpamm/internal/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("AMM_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("AMM_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrations are idempotent")
	return store
}

func TestStoreCommitAndRollback(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := "test/" + uuid.NewString()

	require.NoError(t, store.Update(ctx, func(kv ledger.KV) error {
		return kv.Put(ctx, key, []byte{1, 2, 3})
	}))

	abort := errors.New("abort")
	err := store.Update(ctx, func(kv ledger.KV) error {
		if err := kv.Put(ctx, key, []byte{9}); err != nil {
			return err
		}
		return abort
	})
	require.ErrorIs(t, err, abort)

	require.NoError(t, store.View(ctx, func(kv ledger.KV) error {
		value, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, []byte{1, 2, 3}, value)

		_, ok, err = kv.Get(ctx, key+"/missing")
		require.NoError(t, err)
		require.False(t, ok)

		require.ErrorIs(t, kv.Put(ctx, key, nil), ledger.ErrReadOnly)
		return nil
	}))
}

func TestClassify(t *testing.T) {
	serialization := fmt.Errorf("postgres: commit: %w", &pgconn.PgError{Code: "40001"})
	require.ErrorIs(t, classify(serialization), ledger.ErrConflict)

	unique := &pgconn.PgError{Code: "23505"}
	require.NotErrorIs(t, classify(unique), ledger.ErrConflict)

	plain := errors.New("boom")
	require.Equal(t, plain, classify(plain))
}

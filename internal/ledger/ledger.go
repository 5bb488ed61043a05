// Package ledger defines the atomic record store the pool handlers run on.
// A Store applies one Update at a time per record; an Update either commits
// every write it made or none of them.
package ledger

import (
	"context"
	"encoding"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/model"
)

// ErrConflict reports a transient failure: a concurrent writer touched the
// same records. The operation had no effect and may be resubmitted.
var ErrConflict = errors.New("ledger conflict")

// ErrReadOnly is returned by Put inside a View.
var ErrReadOnly = errors.New("ledger view is read-only")

// KV is the raw key/value surface of one transaction.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Store runs functions against ledger state. Update is all-or-nothing: if fn
// returns an error nothing it wrote becomes visible.
type Store interface {
	Update(ctx context.Context, fn func(KV) error) error
	View(ctx context.Context, fn func(KV) error) error
	Close() error
}

// Update runs fn in a read-write transaction with typed record access.
func Update(ctx context.Context, store Store, fn func(*Tx) error) error {
	return store.Update(ctx, func(kv KV) error {
		return fn(&Tx{kv: kv})
	})
}

// View runs fn in a read-only transaction with typed record access.
func View(ctx context.Context, store Store, fn func(*Tx) error) error {
	return store.View(ctx, func(kv KV) error {
		return fn(&Tx{kv: kv})
	})
}

// PoolKey, PositionKey and AccountKey name records in the store.
func PoolKey(pool common.Hash) string {
	return "pool/" + pool.Hex()
}

func PositionKey(pool, owner common.Hash) string {
	return "position/" + pool.Hex() + "/" + owner.Hex()
}

func AccountKey(account common.Hash) string {
	return "account/" + account.Hex()
}

// Tx gives typed access to the records of one transaction.
type Tx struct {
	kv KV
}

// NewTx wraps a raw transaction.
func NewTx(kv KV) *Tx {
	return &Tx{kv: kv}
}

func (t *Tx) Pool(ctx context.Context, id common.Hash) (model.Pool, bool, error) {
	var pool model.Pool
	ok, err := t.get(ctx, PoolKey(id), &pool)
	return pool, ok, err
}

func (t *Tx) PutPool(ctx context.Context, id common.Hash, pool model.Pool) error {
	return t.put(ctx, PoolKey(id), pool)
}

// Position returns the owner's position in a pool. A missing record reads as
// a zero position with ok=false.
func (t *Tx) Position(ctx context.Context, pool, owner common.Hash) (model.Position, bool, error) {
	var position model.Position
	ok, err := t.get(ctx, PositionKey(pool, owner), &position)
	return position, ok, err
}

func (t *Tx) PutPosition(ctx context.Context, pool, owner common.Hash, position model.Position) error {
	return t.put(ctx, PositionKey(pool, owner), position)
}

func (t *Tx) Account(ctx context.Context, id common.Hash) (model.Account, bool, error) {
	var account model.Account
	ok, err := t.get(ctx, AccountKey(id), &account)
	return account, ok, err
}

func (t *Tx) PutAccount(ctx context.Context, id common.Hash, account model.Account) error {
	return t.put(ctx, AccountKey(id), account)
}

func (t *Tx) get(ctx context.Context, key string, out encoding.BinaryUnmarshaler) (bool, error) {
	data, ok, err := t.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := out.UnmarshalBinary(data); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (t *Tx) put(ctx context.Context, key string, in encoding.BinaryMarshaler) error {
	data, err := in.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := t.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

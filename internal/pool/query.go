package pool

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/amm"
	"cpamm/internal/custody"
	"cpamm/internal/ledger"
	"cpamm/internal/model"
)

// Pool returns the pool record or amm.ErrPoolNotFound.
func (p *Processor) Pool(ctx context.Context, id common.Hash) (model.Pool, error) {
	var pool model.Pool
	err := ledger.View(ctx, p.store, func(tx *ledger.Tx) error {
		var ok bool
		var err error
		pool, ok, err = tx.Pool(ctx, id)
		if err != nil {
			return fmt.Errorf("load pool: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", amm.ErrPoolNotFound, id.Hex())
		}
		return nil
	})
	return pool, err
}

// Position returns the owner's position; an owner that never deposited holds
// a zero position.
func (p *Processor) Position(ctx context.Context, pool, owner common.Hash) (model.Position, error) {
	var position model.Position
	err := ledger.View(ctx, p.store, func(tx *ledger.Tx) error {
		var err error
		position, _, err = tx.Position(ctx, pool, owner)
		if err != nil {
			return fmt.Errorf("load position: %w", err)
		}
		return nil
	})
	return position, err
}

// Account returns a custody account or custody.ErrAccountNotFound.
func (p *Processor) Account(ctx context.Context, id common.Hash) (model.Account, error) {
	var account model.Account
	err := ledger.View(ctx, p.store, func(tx *ledger.Tx) error {
		var ok bool
		var err error
		account, ok, err = tx.Account(ctx, id)
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", custody.ErrAccountNotFound, id.Hex())
		}
		return nil
	})
	return account, err
}

// Quote previews a swap without moving assets.
func (p *Processor) Quote(ctx context.Context, id common.Hash, inputIsA bool, amountIn uint64) (uint64, error) {
	pool, err := p.Pool(ctx, id)
	if err != nil {
		return 0, err
	}
	return amm.ComputeSwap(pool, inputIsA, amountIn, 0)
}

// OpenAccount creates a funded custody account. It exists for tooling; the
// pool operations never mint balances.
func (p *Processor) OpenAccount(ctx context.Context, id, owner, asset common.Hash, balance uint64) error {
	return ledger.Update(ctx, p.store, func(tx *ledger.Tx) error {
		return custody.Open(ctx, tx, id, owner, asset, balance)
	})
}

// Package custody moves asset balances between accounts. Balances live in the
// ledger next to the pool records, so a transfer made inside an Update is
// rolled back with everything else when the operation fails.
package custody

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/amm"
	"cpamm/internal/ledger"
	"cpamm/internal/model"
)

// ErrAccountNotFound is returned for transfers touching an unknown account.
var ErrAccountNotFound = fmt.Errorf("%w: account not found", amm.ErrValidation)

// ErrAccountExists is returned by Open for an id already in use.
var ErrAccountExists = fmt.Errorf("%w: account already exists", amm.ErrValidation)

// Transfer moves Amount from From to To. Authority must own From.
type Transfer struct {
	From      common.Hash
	To        common.Hash
	Amount    uint64
	Authority common.Hash
}

// Adapter is the custody contract the pool handlers depend on.
type Adapter interface {
	Transfer(ctx context.Context, tx *ledger.Tx, t Transfer) error
	SetAuthority(ctx context.Context, tx *ledger.Tx, account, current, next common.Hash) error
}

// Book is the ledger-backed Adapter.
type Book struct{}

var _ Adapter = Book{}

func (Book) Transfer(ctx context.Context, tx *ledger.Tx, t Transfer) error {
	if t.From == t.To {
		return fmt.Errorf("%w: transfer to self %s", amm.ErrValidation, t.From.Hex())
	}

	from, err := load(ctx, tx, t.From)
	if err != nil {
		return err
	}
	to, err := load(ctx, tx, t.To)
	if err != nil {
		return err
	}

	if from.Owner != t.Authority {
		return fmt.Errorf("%w: %s does not control account %s", amm.ErrAuthorization, t.Authority.Hex(), t.From.Hex())
	}
	if from.Asset != to.Asset {
		return fmt.Errorf("%w: asset mismatch %s -> %s", amm.ErrValidation, from.Asset.Hex(), to.Asset.Hex())
	}
	if from.Balance < t.Amount {
		return fmt.Errorf("%w: account %s holds %d, transfer %d", amm.ErrValidation, t.From.Hex(), from.Balance, t.Amount)
	}
	if to.Balance+t.Amount < to.Balance {
		return fmt.Errorf("%w: credit to %s", amm.ErrArithmeticOverflow, t.To.Hex())
	}

	from.Balance -= t.Amount
	to.Balance += t.Amount
	if err := tx.PutAccount(ctx, t.From, from); err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if err := tx.PutAccount(ctx, t.To, to); err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	return nil
}

// SetAuthority hands control of account from current to next.
func (Book) SetAuthority(ctx context.Context, tx *ledger.Tx, account, current, next common.Hash) error {
	acct, err := load(ctx, tx, account)
	if err != nil {
		return err
	}
	if acct.Owner != current {
		return fmt.Errorf("%w: %s does not control account %s", amm.ErrAuthorization, current.Hex(), account.Hex())
	}
	acct.Owner = next
	if err := tx.PutAccount(ctx, account, acct); err != nil {
		return fmt.Errorf("set authority: %w", err)
	}
	return nil
}

// Open creates an account holding balance of asset.
func Open(ctx context.Context, tx *ledger.Tx, id, owner, asset common.Hash, balance uint64) error {
	_, ok, err := tx.Account(ctx, id)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, id.Hex())
	}
	return tx.PutAccount(ctx, id, model.Account{Owner: owner, Asset: asset, Balance: balance})
}

func load(ctx context.Context, tx *ledger.Tx, id common.Hash) (model.Account, error) {
	acct, ok, err := tx.Account(ctx, id)
	if err != nil {
		return model.Account{}, fmt.Errorf("load account: %w", err)
	}
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, id.Hex())
	}
	return acct, nil
}

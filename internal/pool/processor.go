// Package pool runs the Initialize, Deposit, Redeem and Swap operations.
// Each operation loads its records, asks the amm engine for the next state,
// moves assets through the custody adapter and persists the result, all in
// one ledger transaction.
package pool

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cpamm/internal/amm"
	"cpamm/internal/custody"
	"cpamm/internal/ledger"
	"cpamm/internal/model"
	"cpamm/internal/storage"
)

// Processor executes pool operations against a ledger.
type Processor struct {
	store   ledger.Store
	custody custody.Adapter
	journal storage.Journal
	logger  *zap.Logger
	now     func() time.Time
}

// NewProcessor builds a Processor. A nil adapter defaults to custody.Book, a
// nil journal discards receipts.
func NewProcessor(store ledger.Store, adapter custody.Adapter, journal storage.Journal, logger *zap.Logger) *Processor {
	if adapter == nil {
		adapter = custody.Book{}
	}
	if journal == nil {
		journal = storage.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		store:   store,
		custody: adapter,
		journal: journal,
		logger:  logger,
		now:     time.Now,
	}
}

// InitializeRequest binds two signer-owned, empty vaults to a new pool.
type InitializeRequest struct {
	Signer common.Hash
	AssetA common.Hash
	AssetB common.Hash
	VaultA common.Hash
	VaultB common.Hash
}

// DepositRequest moves AmountA and AmountB from the signer's source
// accounts into the pool vaults.
type DepositRequest struct {
	Signer  common.Hash
	Pool    common.Hash
	SourceA common.Hash
	SourceB common.Hash
	VaultA  common.Hash
	VaultB  common.Hash
	AmountA uint64
	AmountB uint64
}

// RedeemRequest burns Shares of the signer's position and pays the released
// amounts to DestA and DestB.
type RedeemRequest struct {
	Signer common.Hash
	Pool   common.Hash
	VaultA common.Hash
	VaultB common.Hash
	DestA  common.Hash
	DestB  common.Hash
	Shares uint64
}

// SwapRequest sells AmountIn from Source and pays the output asset to Dest.
type SwapRequest struct {
	Signer       common.Hash
	Pool         common.Hash
	Source       common.Hash
	Dest         common.Hash
	VaultA       common.Hash
	VaultB       common.Hash
	InputIsA     bool
	AmountIn     uint64
	MinAmountOut uint64
}

// commit runs fn in one ledger update, then journals the receipt it built.
// Nothing is journaled when the update fails.
func (p *Processor) commit(ctx context.Context, op string, signer common.Hash, fn func(*ledger.Tx, *model.Receipt) error) (model.Receipt, error) {
	receipt := model.Receipt{Op: op, Signer: signer.Hex()}
	err := ledger.Update(ctx, p.store, func(tx *ledger.Tx) error {
		return fn(tx, &receipt)
	})
	if err != nil {
		p.logger.Debug("operation rejected",
			zap.String("op", op),
			zap.String("signer", receipt.Signer),
			zap.String("kind", amm.KindOf(err).String()),
			zap.Error(err),
		)
		return model.Receipt{}, err
	}

	receipt.ID = uuid.NewString()
	receipt.CommittedAt = p.now().UTC().Format(time.RFC3339Nano)
	if err := p.journal.PutReceipts(ctx, []model.Receipt{receipt}); err != nil {
		p.logger.Warn("journal receipt failed", zap.String("id", receipt.ID), zap.String("op", op), zap.Error(err))
	}

	p.logger.Info("operation committed",
		zap.String("id", receipt.ID),
		zap.String("op", op),
		zap.String("pool", receipt.Pool),
		zap.Uint64("reserve_a", receipt.ReserveA),
		zap.Uint64("reserve_b", receipt.ReserveB),
		zap.Uint64("total_shares", receipt.TotalShares),
	)
	return receipt, nil
}

func settle(receipt *model.Receipt, id common.Hash, pool model.Pool) {
	receipt.Pool = id.Hex()
	receipt.ReserveA = pool.ReserveA
	receipt.ReserveB = pool.ReserveB
	receipt.TotalShares = pool.TotalShares
}

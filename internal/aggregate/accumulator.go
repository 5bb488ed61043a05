package aggregate

import (
	"fmt"
	"math/big"

	"cpamm/internal/model"
)

// Accumulator holds running totals for one pool.
type Accumulator struct {
	Pool           string
	SwapCount      uint64
	DepositCount   uint64
	RedeemCount    uint64
	VolumeInA      *big.Int
	VolumeInB      *big.Int
	VolumeOutA     *big.Int
	VolumeOutB     *big.Int
	DepositedA     *big.Int
	DepositedB     *big.Int
	RedeemedA      *big.Int
	RedeemedB      *big.Int
	ReserveA       uint64
	ReserveB       uint64
	TotalShares    uint64
	FirstCommitted string
	LastCommitted  string
}

func NewAccumulator(pool string) *Accumulator {
	return &Accumulator{
		Pool:       pool,
		VolumeInA:  big.NewInt(0),
		VolumeInB:  big.NewInt(0),
		VolumeOutA: big.NewInt(0),
		VolumeOutB: big.NewInt(0),
		DepositedA: big.NewInt(0),
		DepositedB: big.NewInt(0),
		RedeemedA:  big.NewInt(0),
		RedeemedB:  big.NewInt(0),
	}
}

// Add folds one receipt into the totals. Receipts must arrive in commit
// order; the post-operation reserves of the last one win.
func (a *Accumulator) Add(receipt model.Receipt) error {
	switch receipt.Op {
	case model.OpInitialize:
	case model.OpDeposit:
		a.DepositCount++
		addUint(a.DepositedA, receipt.AmountA)
		addUint(a.DepositedB, receipt.AmountB)
	case model.OpRedeem:
		a.RedeemCount++
		addUint(a.RedeemedA, receipt.AmountA)
		addUint(a.RedeemedB, receipt.AmountB)
	case model.OpSwap:
		a.SwapCount++
		if receipt.InputIsA {
			addUint(a.VolumeInA, receipt.AmountIn)
			addUint(a.VolumeOutB, receipt.AmountOut)
		} else {
			addUint(a.VolumeInB, receipt.AmountIn)
			addUint(a.VolumeOutA, receipt.AmountOut)
		}
	default:
		return fmt.Errorf("unknown op %q", receipt.Op)
	}

	if a.FirstCommitted == "" {
		a.FirstCommitted = receipt.CommittedAt
	}
	a.LastCommitted = receipt.CommittedAt
	a.ReserveA = receipt.ReserveA
	a.ReserveB = receipt.ReserveB
	a.TotalShares = receipt.TotalShares
	return nil
}

// Stats renders the totals.
func (a *Accumulator) Stats() model.PoolStats {
	return model.PoolStats{
		Pool:           a.Pool,
		SwapCount:      a.SwapCount,
		DepositCount:   a.DepositCount,
		RedeemCount:    a.RedeemCount,
		VolumeInA:      a.VolumeInA.String(),
		VolumeInB:      a.VolumeInB.String(),
		VolumeOutA:     a.VolumeOutA.String(),
		VolumeOutB:     a.VolumeOutB.String(),
		DepositedA:     a.DepositedA.String(),
		DepositedB:     a.DepositedB.String(),
		RedeemedA:      a.RedeemedA.String(),
		RedeemedB:      a.RedeemedB.String(),
		ReserveA:       a.ReserveA,
		ReserveB:       a.ReserveB,
		TotalShares:    a.TotalShares,
		Price:          spotPrice(a.ReserveA, a.ReserveB),
		FirstCommitted: a.FirstCommitted,
		LastCommitted:  a.LastCommitted,
	}
}

func addUint(target *big.Int, value uint64) {
	target.Add(target, new(big.Int).SetUint64(value))
}

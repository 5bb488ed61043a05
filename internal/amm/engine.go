// Package amm holds the constant-product invariant math. Every function is
// pure: it takes freshly loaded records and returns the next values without
// touching storage or custody.
package amm

import (
	"fmt"

	"github.com/holiman/uint256"

	"cpamm/internal/model"
)

// DepositResult is the next state after a successful deposit.
type DepositResult struct {
	Pool     model.Pool
	Position model.Position
	Minted   uint64
}

// RedeemResult is the next state after a successful redeem.
type RedeemResult struct {
	Pool     model.Pool
	Position model.Position
	AmountA  uint64
	AmountB  uint64
}

// SwapResult is the next state after a successful swap.
type SwapResult struct {
	Pool      model.Pool
	AmountOut uint64
}

// ComputeMint returns the shares minted for depositing (amountA, amountB).
//
// The first deposit mints amountA shares and fixes the pool price at
// amountA:amountB; the first depositor carries the full price-setting risk.
// Later deposits must match the current reserve ratio exactly.
func ComputeMint(pool model.Pool, amountA, amountB uint64) (uint64, error) {
	if amountA == 0 || amountB == 0 {
		return 0, invalid("deposit amounts must be positive (a=%d b=%d)", amountA, amountB)
	}

	if !pool.EverDeposited {
		return amountA, nil
	}
	if pool.ReserveA == 0 || pool.ReserveB == 0 {
		return 0, fmt.Errorf("%w: funded pool has an empty reserve", ErrInsufficientReserve)
	}

	lhs := mul(pool.ReserveA, amountB)
	rhs := mul(pool.ReserveB, amountA)
	if !lhs.Eq(rhs) {
		return 0, fmt.Errorf("%w: reserveA*amountB=%s reserveB*amountA=%s", ErrRatioMismatch, lhs.Dec(), rhs.Dec())
	}

	shares, err := mulDiv(amountA, pool.TotalShares, pool.ReserveA)
	if err != nil {
		return 0, fmt.Errorf("mint shares: %w", err)
	}
	if shares == 0 {
		return 0, ErrZeroMint
	}
	return shares, nil
}

// ComputeRedeem returns the asset amounts released for burning shares.
// Redeeming the entire supply is rejected so a funded pool never drains.
func ComputeRedeem(pool model.Pool, position model.Position, shares uint64) (uint64, uint64, error) {
	if shares == 0 {
		return 0, 0, invalid("redeem shares must be positive")
	}
	if shares > position.MintedShares {
		return 0, 0, fmt.Errorf("%w: redeem %d, position holds %d", ErrInsufficientShares, shares, position.MintedShares)
	}
	if shares >= pool.TotalShares {
		return 0, 0, fmt.Errorf("%w: redeem %d must be below total supply %d", ErrInsufficientReserve, shares, pool.TotalShares)
	}

	amountA, err := mulDiv(shares, pool.ReserveA, pool.TotalShares)
	if err != nil {
		return 0, 0, fmt.Errorf("redeem amount a: %w", err)
	}
	amountB, err := mulDiv(shares, pool.ReserveB, pool.TotalShares)
	if err != nil {
		return 0, 0, fmt.Errorf("redeem amount b: %w", err)
	}
	return amountA, amountB, nil
}

// ComputeSwap returns floor(amountIn*reserveOut/(reserveIn+amountIn)).
// There is no fee; floor rounding keeps the remainder in the pool.
func ComputeSwap(pool model.Pool, inputIsA bool, amountIn, minAmountOut uint64) (uint64, error) {
	if amountIn == 0 {
		return 0, invalid("swap amount in must be positive")
	}

	reserveIn, reserveOut := pool.Reserves(inputIsA)
	if reserveIn == 0 || reserveOut == 0 {
		return 0, fmt.Errorf("%w: pool has no liquidity", ErrInsufficientReserve)
	}

	denominator, err := add(reserveIn, amountIn)
	if err != nil {
		return 0, fmt.Errorf("swap reserve in: %w", err)
	}
	amountOut, err := mulDiv(amountIn, reserveOut, denominator)
	if err != nil {
		return 0, fmt.Errorf("swap amount out: %w", err)
	}

	if amountOut < minAmountOut {
		return 0, fmt.Errorf("%w: amount out %d below minimum %d", ErrSlippageExceeded, amountOut, minAmountOut)
	}
	return amountOut, nil
}

// ApplyDeposit computes the mint and returns the updated pool and position.
func ApplyDeposit(pool model.Pool, position model.Position, amountA, amountB uint64) (DepositResult, error) {
	minted, err := ComputeMint(pool, amountA, amountB)
	if err != nil {
		return DepositResult{}, err
	}

	next := pool
	next.EverDeposited = true
	if next.ReserveA, err = add(pool.ReserveA, amountA); err != nil {
		return DepositResult{}, fmt.Errorf("reserve a: %w", err)
	}
	if next.ReserveB, err = add(pool.ReserveB, amountB); err != nil {
		return DepositResult{}, fmt.Errorf("reserve b: %w", err)
	}
	if next.TotalShares, err = add(pool.TotalShares, minted); err != nil {
		return DepositResult{}, fmt.Errorf("total shares: %w", err)
	}

	nextPosition := position
	if nextPosition.MintedShares, err = add(position.MintedShares, minted); err != nil {
		return DepositResult{}, fmt.Errorf("position shares: %w", err)
	}

	return DepositResult{Pool: next, Position: nextPosition, Minted: minted}, nil
}

// ApplyRedeem computes the redeem and returns the updated pool and position.
func ApplyRedeem(pool model.Pool, position model.Position, shares uint64) (RedeemResult, error) {
	amountA, amountB, err := ComputeRedeem(pool, position, shares)
	if err != nil {
		return RedeemResult{}, err
	}

	next := pool
	next.ReserveA -= amountA
	next.ReserveB -= amountB
	next.TotalShares -= shares

	nextPosition := position
	nextPosition.MintedShares -= shares

	return RedeemResult{Pool: next, Position: nextPosition, AmountA: amountA, AmountB: amountB}, nil
}

// ApplySwap computes the swap and returns the pool with moved reserves.
func ApplySwap(pool model.Pool, inputIsA bool, amountIn, minAmountOut uint64) (SwapResult, error) {
	amountOut, err := ComputeSwap(pool, inputIsA, amountIn, minAmountOut)
	if err != nil {
		return SwapResult{}, err
	}

	next := pool
	if inputIsA {
		next.ReserveA += amountIn
		next.ReserveB -= amountOut
	} else {
		next.ReserveB += amountIn
		next.ReserveA -= amountOut
	}
	return SwapResult{Pool: next, AmountOut: amountOut}, nil
}

func mul(a, b uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
}

// mulDiv returns floor(a*b/d) with the product held at full width.
func mulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrInsufficientReserve)
	}
	q := mul(a, b)
	q.Div(q, uint256.NewInt(d))
	if !q.IsUint64() {
		return 0, fmt.Errorf("%w: %d*%d/%d exceeds u64", ErrArithmeticOverflow, a, b, d)
	}
	return q.Uint64(), nil
}

func add(a, b uint64) (uint64, error) {
	sum := new(uint256.Int).Add(uint256.NewInt(a), uint256.NewInt(b))
	if !sum.IsUint64() {
		return 0, fmt.Errorf("%w: %d+%d exceeds u64", ErrArithmeticOverflow, a, b)
	}
	return sum.Uint64(), nil
}

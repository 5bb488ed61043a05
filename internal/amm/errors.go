package amm

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine and the operation handlers. Callers
// match them with errors.Is; KindOf maps any wrapped error to its stable code.
var (
	ErrValidation          = errors.New("validation failed")
	ErrRatioMismatch       = errors.New("deposit ratio mismatch")
	ErrZeroMint            = errors.New("deposit mints zero shares")
	ErrInsufficientShares  = errors.New("insufficient shares")
	ErrInsufficientReserve = errors.New("insufficient reserve")
	ErrSlippageExceeded    = errors.New("slippage exceeded")
	ErrArithmeticOverflow  = errors.New("arithmetic overflow")
	ErrAlreadyInitialized  = errors.New("pool already initialized")
	ErrAuthorization       = errors.New("authorization failed")
	ErrPoolNotFound        = errors.New("pool not found")
)

// Kind is the numeric error code reported to off-chain tooling.
type Kind uint32

const (
	KindUnknown Kind = iota
	KindValidation
	KindRatioMismatch
	KindZeroMint
	KindInsufficientShares
	KindInsufficientReserve
	KindSlippageExceeded
	KindArithmeticOverflow
	KindAlreadyInitialized
	KindAuthorization
	KindPoolNotFound
)

var kinds = []struct {
	err  error
	kind Kind
	name string
}{
	{ErrValidation, KindValidation, "validation"},
	{ErrRatioMismatch, KindRatioMismatch, "ratio_mismatch"},
	{ErrZeroMint, KindZeroMint, "zero_mint"},
	{ErrInsufficientShares, KindInsufficientShares, "insufficient_shares"},
	{ErrInsufficientReserve, KindInsufficientReserve, "insufficient_reserve"},
	{ErrSlippageExceeded, KindSlippageExceeded, "slippage_exceeded"},
	{ErrArithmeticOverflow, KindArithmeticOverflow, "arithmetic_overflow"},
	{ErrAlreadyInitialized, KindAlreadyInitialized, "already_initialized"},
	{ErrAuthorization, KindAuthorization, "authorization"},
	{ErrPoolNotFound, KindPoolNotFound, "pool_not_found"},
}

func (k Kind) String() string {
	for _, entry := range kinds {
		if entry.kind == k {
			return entry.name
		}
	}
	return "unknown"
}

// KindOf returns the code of the first domain error found in err's chain.
// Errors from the ledger or transport report KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, entry := range kinds {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return KindUnknown
}

// IsDomain reports whether err is a deterministic rejection by the engine
// rather than a ledger or infrastructure failure.
func IsDomain(err error) bool {
	return KindOf(err) != KindUnknown
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

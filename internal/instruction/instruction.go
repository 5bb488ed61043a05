// Package instruction decodes the tag-prefixed binary instruction format
// into typed values once, at the boundary.
package instruction

import (
	"encoding/binary"
	"errors"
	"fmt"

	"cpamm/internal/amm"
)

// Tag identifies an instruction variant on the wire.
type Tag uint8

const (
	TagInitialize Tag = 0
	TagDeposit    Tag = 1
	TagRedeem     Tag = 2
	TagSwap       Tag = 3
)

func (t Tag) String() string {
	switch t {
	case TagInitialize:
		return "initialize"
	case TagDeposit:
		return "deposit"
	case TagRedeem:
		return "redeem"
	case TagSwap:
		return "swap"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// ErrInvalidInstruction is returned for undecodable instruction data.
var ErrInvalidInstruction = fmt.Errorf("%w: invalid instruction data", amm.ErrValidation)

// Instruction is one of Initialize, Deposit, Redeem or Swap.
type Instruction interface {
	Tag() Tag
	isInstruction()
}

type Initialize struct{}

type Deposit struct {
	AmountA uint64
	AmountB uint64
}

type Redeem struct {
	Shares uint64
}

// Swap moves AmountIn of the input asset into the pool. On the wire the
// direction is a u64 where 0 means asset A is the input.
type Swap struct {
	InputIsA     bool
	AmountIn     uint64
	MinAmountOut uint64
}

func (Initialize) Tag() Tag { return TagInitialize }
func (Deposit) Tag() Tag    { return TagDeposit }
func (Redeem) Tag() Tag     { return TagRedeem }
func (Swap) Tag() Tag       { return TagSwap }

func (Initialize) isInstruction() {}
func (Deposit) isInstruction()    {}
func (Redeem) isInstruction()     {}
func (Swap) isInstruction()       {}

var payloadWords = map[Tag]int{
	TagInitialize: 0,
	TagDeposit:    2,
	TagRedeem:     1,
	TagSwap:       3,
}

// Decode parses instruction data. The payload must have exactly the length
// its tag requires.
func Decode(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidInstruction)
	}

	tag := Tag(data[0])
	words, ok := payloadWords[tag]
	if !ok {
		return nil, fmt.Errorf("%w: unknown tag %d", ErrInvalidInstruction, data[0])
	}
	payload := data[1:]
	if len(payload) != words*8 {
		return nil, fmt.Errorf("%w: %s payload is %d bytes, want %d", ErrInvalidInstruction, tag, len(payload), words*8)
	}

	word := func(i int) uint64 {
		return binary.LittleEndian.Uint64(payload[i*8:])
	}

	switch tag {
	case TagInitialize:
		return Initialize{}, nil
	case TagDeposit:
		return Deposit{AmountA: word(0), AmountB: word(1)}, nil
	case TagRedeem:
		return Redeem{Shares: word(0)}, nil
	case TagSwap:
		return Swap{InputIsA: word(0) == 0, AmountIn: word(1), MinAmountOut: word(2)}, nil
	}
	return nil, errors.New("unreachable")
}

// Encode serializes an instruction into its wire form.
func Encode(ix Instruction) ([]byte, error) {
	var words []uint64
	switch v := ix.(type) {
	case Initialize:
	case Deposit:
		words = []uint64{v.AmountA, v.AmountB}
	case Redeem:
		words = []uint64{v.Shares}
	case Swap:
		direction := uint64(1)
		if v.InputIsA {
			direction = 0
		}
		words = []uint64{direction, v.AmountIn, v.MinAmountOut}
	default:
		return nil, fmt.Errorf("unsupported instruction %T", ix)
	}

	buf := make([]byte, 1+8*len(words))
	buf[0] = byte(ix.Tag())
	for i, w := range words {
		binary.LittleEndian.PutUint64(buf[1+i*8:], w)
	}
	return buf, nil
}

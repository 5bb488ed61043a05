package instruction

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"cpamm/internal/amm"
)

func TestDecodeVariants(t *testing.T) {
	cases := []struct {
		name string
		data string
		want Instruction
	}{
		{"initialize", "0x00", Initialize{}},
		{"deposit", "0x01" + "6400000000000000" + "c800000000000000", Deposit{AmountA: 100, AmountB: 200}},
		{"redeem", "0x02" + "3200000000000000", Redeem{Shares: 50}},
		{"swap a in", "0x03" + "0000000000000000" + "0a00000000000000" + "1100000000000000", Swap{InputIsA: true, AmountIn: 10, MinAmountOut: 17}},
		{"swap b in", "0x03" + "0100000000000000" + "0a00000000000000" + "0000000000000000", Swap{InputIsA: false, AmountIn: 10}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := hexutil.Decode(tc.data)
			if err != nil {
				t.Fatalf("hex: %v", err)
			}
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("decoded %#v, want %#v", got, tc.want)
			}

			encoded, err := Encode(got)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if !bytes.Equal(encoded, data) {
				t.Fatalf("encode %x, want %x", encoded, data)
			}
		})
	}
}

func TestSwapDirectionNonZeroMeansB(t *testing.T) {
	data := make([]byte, 25)
	data[0] = byte(TagSwap)
	data[1] = 7
	ix, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ix.(Swap).InputIsA {
		t.Fatalf("non-zero direction word should select asset B as input")
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string][]byte{
		"empty":            nil,
		"unknown tag":      {9},
		"short deposit":    append([]byte{1}, make([]byte, 15)...),
		"trailing redeem":  append([]byte{2}, make([]byte, 9)...),
		"initialize extra": {0, 0},
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data)
			if !errors.Is(err, ErrInvalidInstruction) {
				t.Fatalf("expected ErrInvalidInstruction, got %v", err)
			}
			if !errors.Is(err, amm.ErrValidation) {
				t.Fatalf("instruction errors should be validation errors")
			}
		})
	}
}

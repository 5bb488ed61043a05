package model

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestPoolBinaryLayout(t *testing.T) {
	pool := Pool{
		AssetA:        common.HexToHash("0x01"),
		AssetB:        common.HexToHash("0x02"),
		VaultA:        common.HexToHash("0x03"),
		VaultB:        common.HexToHash("0x04"),
		ReserveA:      100,
		ReserveB:      200,
		EverDeposited: true,
		TotalShares:   100,
	}

	data, err := pool.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(data) != 153 {
		t.Fatalf("record length %d, want 153", len(data))
	}
	if data[31] != 0x01 || data[63] != 0x02 || data[95] != 0x03 || data[127] != 0x04 {
		t.Fatalf("id offsets mismatch: %x", data[:128])
	}
	if got := binary.LittleEndian.Uint64(data[128:136]); got != 100 {
		t.Fatalf("reserve_a %d", got)
	}
	if got := binary.LittleEndian.Uint64(data[136:144]); got != 200 {
		t.Fatalf("reserve_b %d", got)
	}
	if data[144] != 1 {
		t.Fatalf("ever_deposited byte %d", data[144])
	}
	if got := binary.LittleEndian.Uint64(data[145:153]); got != 100 {
		t.Fatalf("total_shares %d", got)
	}

	var decoded Pool
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != pool {
		t.Fatalf("decoded mismatch: %+v != %+v", decoded, pool)
	}
}

func TestPoolUnmarshalRejectsBadInput(t *testing.T) {
	var p Pool
	if err := p.UnmarshalBinary(make([]byte, 10)); err == nil {
		t.Fatalf("expected length error")
	}

	data, _ := Pool{}.MarshalBinary()
	data[144] = 7
	if err := p.UnmarshalBinary(data); err == nil {
		t.Fatalf("expected error for invalid bool byte")
	}
}

func TestPoolPhase(t *testing.T) {
	p := NewPool(common.HexToHash("0xa"), common.HexToHash("0xb"), common.HexToHash("0xc"), common.HexToHash("0xd"))
	if p.Phase() != PhaseEmpty {
		t.Fatalf("new pool phase %s", p.Phase())
	}
	p.EverDeposited = true
	if p.Phase() != PhaseFunded {
		t.Fatalf("funded pool phase %s", p.Phase())
	}
}

func TestPositionAndAccountRecords(t *testing.T) {
	pos := Position{MintedShares: 42}
	data, _ := pos.MarshalBinary()
	if !bytes.Equal(data, []byte{42, 0, 0, 0, 0, 0, 0, 0}) {
		t.Fatalf("position bytes %x", data)
	}

	acct := Account{Owner: common.HexToHash("0x11"), Asset: common.HexToHash("0x22"), Balance: 9}
	data, _ = acct.MarshalBinary()
	if len(data) != AccountRecordLen {
		t.Fatalf("account length %d", len(data))
	}
	var decoded Account
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal account: %v", err)
	}
	if decoded != acct {
		t.Fatalf("account mismatch: %+v", decoded)
	}
}

package model

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// PoolRecordLen is the fixed size of an encoded Pool record.
const PoolRecordLen = 4*common.HashLength + 8 + 8 + 1 + 8

// Phase is the lifecycle stage of a pool.
type Phase uint8

const (
	PhaseEmpty Phase = iota
	PhaseFunded
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseFunded:
		return "funded"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Pool is the persisted reserve/share record for one asset pair.
// ReserveA and ReserveB mirror the vault balances the pool has confirmed.
type Pool struct {
	AssetA        common.Hash `json:"asset_a"`
	AssetB        common.Hash `json:"asset_b"`
	VaultA        common.Hash `json:"vault_a"`
	VaultB        common.Hash `json:"vault_b"`
	ReserveA      uint64      `json:"reserve_a"`
	ReserveB      uint64      `json:"reserve_b"`
	EverDeposited bool        `json:"ever_deposited"`
	TotalShares   uint64      `json:"total_shares"`
}

// NewPool returns an empty pool bound to its two vaults.
func NewPool(assetA, assetB, vaultA, vaultB common.Hash) Pool {
	return Pool{
		AssetA: assetA,
		AssetB: assetB,
		VaultA: vaultA,
		VaultB: vaultB,
	}
}

// Phase reports whether the pool has received its first deposit.
func (p Pool) Phase() Phase {
	if p.EverDeposited {
		return PhaseFunded
	}
	return PhaseEmpty
}

// Reserves returns (reserveIn, reserveOut) for a swap direction.
func (p Pool) Reserves(inputIsA bool) (uint64, uint64) {
	if inputIsA {
		return p.ReserveA, p.ReserveB
	}
	return p.ReserveB, p.ReserveA
}

// MarshalBinary encodes the pool in its fixed-width ledger layout.
func (p Pool) MarshalBinary() ([]byte, error) {
	buf := make([]byte, PoolRecordLen)
	off := 0
	for _, id := range [...]common.Hash{p.AssetA, p.AssetB, p.VaultA, p.VaultB} {
		copy(buf[off:off+common.HashLength], id[:])
		off += common.HashLength
	}
	binary.LittleEndian.PutUint64(buf[off:], p.ReserveA)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], p.ReserveB)
	off += 8
	if p.EverDeposited {
		buf[off] = 1
	}
	off++
	binary.LittleEndian.PutUint64(buf[off:], p.TotalShares)
	return buf, nil
}

// UnmarshalBinary decodes a pool from its fixed-width ledger layout.
func (p *Pool) UnmarshalBinary(data []byte) error {
	if len(data) != PoolRecordLen {
		return fmt.Errorf("pool record length %d, want %d", len(data), PoolRecordLen)
	}
	off := 0
	ids := [...]*common.Hash{&p.AssetA, &p.AssetB, &p.VaultA, &p.VaultB}
	for _, id := range ids {
		*id = common.BytesToHash(data[off : off+common.HashLength])
		off += common.HashLength
	}
	p.ReserveA = binary.LittleEndian.Uint64(data[off:])
	off += 8
	p.ReserveB = binary.LittleEndian.Uint64(data[off:])
	off += 8
	switch data[off] {
	case 0:
		p.EverDeposited = false
	case 1:
		p.EverDeposited = true
	default:
		return fmt.Errorf("invalid ever_deposited byte %d", data[off])
	}
	off++
	p.TotalShares = binary.LittleEndian.Uint64(data[off:])
	return nil
}

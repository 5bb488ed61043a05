package model

import (
	"encoding/binary"
	"fmt"
)

// PositionRecordLen is the fixed size of an encoded Position record.
const PositionRecordLen = 8

// Position is a depositor's minted-share balance in one pool.
type Position struct {
	MintedShares uint64 `json:"minted_shares"`
}

func (p Position) MarshalBinary() ([]byte, error) {
	buf := make([]byte, PositionRecordLen)
	binary.LittleEndian.PutUint64(buf, p.MintedShares)
	return buf, nil
}

func (p *Position) UnmarshalBinary(data []byte) error {
	if len(data) != PositionRecordLen {
		return fmt.Errorf("position record length %d, want %d", len(data), PositionRecordLen)
	}
	p.MintedShares = binary.LittleEndian.Uint64(data)
	return nil
}

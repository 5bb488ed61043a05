package model

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AccountRecordLen is the fixed size of an encoded Account record.
const AccountRecordLen = 2*common.HashLength + 8

// Account is an asset holding controlled by Owner. Pool vaults are accounts
// whose owner is the pool's delegated authority.
type Account struct {
	Owner   common.Hash `json:"owner"`
	Asset   common.Hash `json:"asset"`
	Balance uint64      `json:"balance"`
}

func (a Account) MarshalBinary() ([]byte, error) {
	buf := make([]byte, AccountRecordLen)
	copy(buf[0:32], a.Owner[:])
	copy(buf[32:64], a.Asset[:])
	binary.LittleEndian.PutUint64(buf[64:], a.Balance)
	return buf, nil
}

func (a *Account) UnmarshalBinary(data []byte) error {
	if len(data) != AccountRecordLen {
		return fmt.Errorf("account record length %d, want %d", len(data), AccountRecordLen)
	}
	a.Owner = common.BytesToHash(data[0:32])
	a.Asset = common.BytesToHash(data[32:64])
	a.Balance = binary.LittleEndian.Uint64(data[64:])
	return nil
}

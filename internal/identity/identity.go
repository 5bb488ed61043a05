// Package identity resolves deterministic pool and authority ids and checks
// caller-supplied accounts against a pool's recorded vaults.
package identity

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/blake3"

	"cpamm/internal/amm"
	"cpamm/internal/model"
)

var (
	poolSeed      = []byte("amm")
	authoritySeed = []byte("amm/authority")
	namedSeed     = []byte("amm/named")
)

// PoolAddress returns the pool id for an asset pair. The pair is unordered:
// (a, b) and (b, a) resolve to the same pool.
func PoolAddress(assetA, assetB common.Hash) common.Hash {
	lo, hi := assetA, assetB
	if bytes.Compare(lo[:], hi[:]) > 0 {
		lo, hi = hi, lo
	}
	return derive(poolSeed, lo[:], hi[:])
}

// PoolAuthority returns the delegated authority of a pool. Vaults owned by
// this id can only be debited by the pool's own handlers; it carries no key.
func PoolAuthority(pool common.Hash) common.Hash {
	return derive(authoritySeed, pool[:])
}

// Named derives a stable id from a human label.
func Named(label string) common.Hash {
	return derive(namedSeed, []byte(label))
}

// VerifyVaults checks supplied vault ids against the pool record.
func VerifyVaults(pool model.Pool, vaultA, vaultB common.Hash) error {
	if vaultA != pool.VaultA {
		return fmt.Errorf("%w: vault a %s is not the pool vault %s", amm.ErrAuthorization, vaultA.Hex(), pool.VaultA.Hex())
	}
	if vaultB != pool.VaultB {
		return fmt.Errorf("%w: vault b %s is not the pool vault %s", amm.ErrAuthorization, vaultB.Hex(), pool.VaultB.Hex())
	}
	return nil
}

func derive(seed []byte, parts ...[]byte) common.Hash {
	h := blake3.New()
	h.Write(seed)
	for _, part := range parts {
		h.Write(part)
	}

	var id common.Hash
	h.Digest().Read(id[:])
	return id
}

package identity

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/amm"
	"cpamm/internal/model"
)

func TestPoolAddressIsUnordered(t *testing.T) {
	a := Named("asset-a")
	b := Named("asset-b")

	if PoolAddress(a, b) != PoolAddress(b, a) {
		t.Fatalf("pool address depends on pair order")
	}
	if PoolAddress(a, b) == PoolAddress(a, Named("asset-c")) {
		t.Fatalf("different pairs resolved to the same pool")
	}
	if PoolAuthority(PoolAddress(a, b)) == PoolAddress(a, b) {
		t.Fatalf("authority must differ from the pool id")
	}
}

func TestVerifyVaults(t *testing.T) {
	pool := model.NewPool(Named("a"), Named("b"), Named("vault-a"), Named("vault-b"))

	if err := VerifyVaults(pool, pool.VaultA, pool.VaultB); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := VerifyVaults(pool, pool.VaultB, pool.VaultA); !errors.Is(err, amm.ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestParseID(t *testing.T) {
	hexID := "0x00000000000000000000000000000000000000000000000000000000000000ff"
	got, err := ParseID(hexID)
	if err != nil {
		t.Fatalf("parse hex: %v", err)
	}
	if got != common.HexToHash(hexID) {
		t.Fatalf("hex id mismatch: %s", got.Hex())
	}

	label, err := ParseID("alice")
	if err != nil {
		t.Fatalf("parse label: %v", err)
	}
	if label != Named("alice") {
		t.Fatalf("label id mismatch")
	}

	if _, err := ParseID("0x1234"); err == nil {
		t.Fatalf("expected length error")
	}
	if _, err := ParseID("0xzz"); err == nil {
		t.Fatalf("expected hex error")
	}
	if _, err := ParseID("  "); err == nil {
		t.Fatalf("expected empty error")
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs([]string{"alice", "", " bob "})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ids) != 2 || ids[1] != Named("bob") {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

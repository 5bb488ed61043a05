package aggregate

import (
	"math/big"
	"strings"
	"time"
)

const ratioScale = 18

// spotPrice is reserveB/reserveA, the units of B paid per unit of A at the
// margin. Empty for an unfunded pool.
func spotPrice(reserveA, reserveB uint64) string {
	if reserveA == 0 {
		return ""
	}
	rat := new(big.Rat).SetFrac(new(big.Int).SetUint64(reserveB), new(big.Int).SetUint64(reserveA))
	return rat.FloatString(ratioScale)
}

func committedAt(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func poolKey(pool string) string {
	return strings.ToLower(pool)
}

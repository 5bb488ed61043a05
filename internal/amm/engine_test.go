package amm

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpamm/internal/model"
)

func fundedPool(reserveA, reserveB, totalShares uint64) model.Pool {
	return model.Pool{
		ReserveA:      reserveA,
		ReserveB:      reserveB,
		EverDeposited: true,
		TotalShares:   totalShares,
	}
}

func TestFirstDepositSetsShareUnit(t *testing.T) {
	res, err := ApplyDeposit(model.Pool{}, model.Position{}, 100, 200)
	require.NoError(t, err)

	assert.Equal(t, uint64(100), res.Minted)
	assert.Equal(t, uint64(100), res.Pool.ReserveA)
	assert.Equal(t, uint64(200), res.Pool.ReserveB)
	assert.Equal(t, uint64(100), res.Pool.TotalShares)
	assert.True(t, res.Pool.EverDeposited)
	assert.Equal(t, uint64(100), res.Position.MintedShares)
}

func TestComputeMint(t *testing.T) {
	testCases := []struct {
		name        string
		pool        model.Pool
		amountA     uint64
		amountB     uint64
		expected    uint64
		expectedErr error
	}{
		{
			name:     "first deposit mints amountA",
			pool:     model.Pool{},
			amountA:  7,
			amountB:  1000,
			expected: 7,
		},
		{
			name:        "first deposit rejects zero amountA",
			pool:        model.Pool{},
			amountA:     0,
			amountB:     10,
			expectedErr: ErrValidation,
		},
		{
			name:        "first deposit rejects zero amountB",
			pool:        model.Pool{},
			amountA:     10,
			amountB:     0,
			expectedErr: ErrValidation,
		},
		{
			name:     "matching ratio mints proportionally",
			pool:     fundedPool(100, 200, 100),
			amountA:  50,
			amountB:  100,
			expected: 50,
		},
		{
			name:        "ratio off by one unit",
			pool:        fundedPool(100, 200, 100),
			amountA:     50,
			amountB:     99,
			expectedErr: ErrRatioMismatch,
		},
		{
			name:        "floor to zero shares",
			pool:        fundedPool(1000, 1000, 1),
			amountA:     10,
			amountB:     10,
			expectedErr: ErrZeroMint,
		},
		{
			name:        "share product overflows u64",
			pool:        fundedPool(1, 1, math.MaxUint64),
			amountA:     2,
			amountB:     2,
			expectedErr: ErrArithmeticOverflow,
		},
		{
			name:     "cross product beyond 64 bits is compared exactly",
			pool:     fundedPool(1<<62, 1<<62, 1<<40),
			amountA:  1 << 61,
			amountB:  1 << 61,
			expected: 1 << 39,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			shares, err := ComputeMint(tc.pool, tc.amountA, tc.amountB)
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, shares)
		})
	}
}

func TestDepositRatioEnforcement(t *testing.T) {
	first, err := ApplyDeposit(model.Pool{}, model.Position{}, 100, 200)
	require.NoError(t, err)

	second, err := ApplyDeposit(first.Pool, model.Position{}, 50, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), second.Minted)
	assert.Equal(t, uint64(150), second.Pool.ReserveA)
	assert.Equal(t, uint64(300), second.Pool.ReserveB)
	assert.Equal(t, uint64(150), second.Pool.TotalShares)

	_, err = ApplyDeposit(first.Pool, model.Position{}, 50, 99)
	require.ErrorIs(t, err, ErrRatioMismatch)
}

func TestDepositReserveOverflow(t *testing.T) {
	pool := fundedPool(math.MaxUint64-1, math.MaxUint64-1, 1)
	_, err := ApplyDeposit(pool, model.Position{}, math.MaxUint64-1, math.MaxUint64-1)
	require.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestComputeRedeem(t *testing.T) {
	pool := fundedPool(1001, 2003, 1000)

	testCases := []struct {
		name        string
		minted      uint64
		shares      uint64
		expectedA   uint64
		expectedB   uint64
		expectedErr error
	}{
		{name: "half the supply", minted: 1000, shares: 500, expectedA: 500, expectedB: 1001},
		{name: "single share", minted: 1000, shares: 1, expectedA: 1, expectedB: 2},
		{name: "zero shares", minted: 1000, shares: 0, expectedErr: ErrValidation},
		{name: "more than position", minted: 10, shares: 11, expectedErr: ErrInsufficientShares},
		{name: "entire supply", minted: 1000, shares: 1000, expectedErr: ErrInsufficientReserve},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, b, err := ComputeRedeem(pool, model.Position{MintedShares: tc.minted}, tc.shares)
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedA, a)
			assert.Equal(t, tc.expectedB, b)
		})
	}
}

func TestRedeemProportionality(t *testing.T) {
	pool := fundedPool(1001, 2003, 1000)
	position := model.Position{MintedShares: 700}
	shares := pool.TotalShares / 2

	res, err := ApplyRedeem(pool, position, shares)
	require.NoError(t, err)

	assert.InDelta(t, float64(pool.ReserveA)/2, float64(res.AmountA), 1)
	assert.InDelta(t, float64(pool.ReserveB)/2, float64(res.AmountB), 1)
	assert.Equal(t, pool.TotalShares-shares, res.Pool.TotalShares)
	assert.Equal(t, position.MintedShares-shares, res.Position.MintedShares)
	assert.Equal(t, pool.ReserveA-res.AmountA, res.Pool.ReserveA)
	assert.Equal(t, pool.ReserveB-res.AmountB, res.Pool.ReserveB)
}

func TestSwapSlippageGuard(t *testing.T) {
	pool := fundedPool(160, 300, 160)

	_, err := ComputeSwap(pool, true, 10, 18)
	require.ErrorIs(t, err, ErrSlippageExceeded)

	res, err := ApplySwap(pool, true, 10, 17)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), res.AmountOut)
	assert.Equal(t, uint64(170), res.Pool.ReserveA)
	assert.Equal(t, uint64(283), res.Pool.ReserveB)
}

func TestComputeSwapErrors(t *testing.T) {
	_, err := ComputeSwap(fundedPool(10, 10, 10), false, 0, 0)
	require.ErrorIs(t, err, ErrValidation)

	_, err = ComputeSwap(model.Pool{}, true, 10, 0)
	require.ErrorIs(t, err, ErrInsufficientReserve)

	_, err = ComputeSwap(fundedPool(math.MaxUint64-5, 10, 10), true, 10, 0)
	require.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestSwapDirectionB(t *testing.T) {
	pool := fundedPool(300, 160, 300)
	res, err := ApplySwap(pool, false, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), res.AmountOut)
	assert.Equal(t, uint64(283), res.Pool.ReserveA)
	assert.Equal(t, uint64(170), res.Pool.ReserveB)
}

func TestSwapProductNeverDecreases(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		pool := fundedPool(uint64(rng.Int63n(1_000_000)+1), uint64(rng.Int63n(1_000_000)+1), 1)
		inputIsA := rng.Intn(2) == 0
		amountIn := uint64(rng.Int63n(2_000_000) + 1)

		res, err := ApplySwap(pool, inputIsA, amountIn, 0)
		require.NoError(t, err)

		before := mul(pool.ReserveA, pool.ReserveB)
		after := mul(res.Pool.ReserveA, res.Pool.ReserveB)
		require.False(t, after.Lt(before), "product decreased: %+v -> %+v", pool, res.Pool)
		require.NotZero(t, res.Pool.ReserveA)
		require.NotZero(t, res.Pool.ReserveB)
	}
}

func TestRoundTripsDoNotExtractValue(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	pool := fundedPool(1_000, 3_000, 1_000)

	for i := 0; i < 2000; i++ {
		amountIn := uint64(rng.Int63n(50) + 1)
		inputIsA := rng.Intn(2) == 0

		out, err := ApplySwap(pool, inputIsA, amountIn, 0)
		require.NoError(t, err)
		if out.AmountOut == 0 {
			pool = out.Pool
			continue
		}
		back, err := ApplySwap(out.Pool, !inputIsA, out.AmountOut, 0)
		require.NoError(t, err)
		require.LessOrEqual(t, back.AmountOut, amountIn, "swap round trip returned more than it took")
		pool = back.Pool
	}

	for i := 0; i < 500; i++ {
		a := uint64(rng.Int63n(40) + 1)
		g := gcd(pool.ReserveA, pool.ReserveB)
		unitA, unitB := pool.ReserveA/g, pool.ReserveB/g
		depositA, depositB := unitA*a, unitB*a

		dep, err := ApplyDeposit(pool, model.Position{}, depositA, depositB)
		if err != nil {
			require.ErrorIs(t, err, ErrZeroMint)
			continue
		}
		red, err := ApplyRedeem(dep.Pool, dep.Position, dep.Minted)
		require.NoError(t, err)
		require.LessOrEqual(t, red.AmountA, depositA)
		require.LessOrEqual(t, red.AmountB, depositB)
		pool = red.Pool
	}
}

func TestRandomSequenceKeepsReservesFunded(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	first, err := ApplyDeposit(model.Pool{}, model.Position{}, 500, 900)
	require.NoError(t, err)
	pool, position := first.Pool, first.Position

	for i := 0; i < 3000; i++ {
		switch rng.Intn(3) {
		case 0:
			if pool.TotalShares > 1<<40 || pool.ReserveA > 1<<40 || pool.ReserveB > 1<<40 {
				continue
			}
			g := gcd(pool.ReserveA, pool.ReserveB)
			k := uint64(rng.Int63n(5) + 1)
			if res, err := ApplyDeposit(pool, position, pool.ReserveA/g*k, pool.ReserveB/g*k); err == nil {
				pool, position = res.Pool, res.Position
			}
		case 1:
			if position.MintedShares == 0 {
				continue
			}
			shares := uint64(rng.Int63n(int64(position.MintedShares)) + 1)
			if res, err := ApplyRedeem(pool, position, shares); err == nil {
				pool, position = res.Pool, res.Position
			}
		default:
			if res, err := ApplySwap(pool, rng.Intn(2) == 0, uint64(rng.Int63n(200)+1), 0); err == nil {
				pool = res.Pool
			}
		}
		if pool.TotalShares > 0 {
			require.NotZero(t, pool.ReserveA, "step %d", i)
			require.NotZero(t, pool.ReserveB, "step %d", i)
		}
	}
}

func TestKindOf(t *testing.T) {
	_, err := ComputeSwap(fundedPool(160, 300, 160), true, 10, 18)
	assert.Equal(t, KindSlippageExceeded, KindOf(err))
	assert.Equal(t, "slippage_exceeded", KindOf(err).String())
	assert.True(t, IsDomain(fmt.Errorf("wrapped: %w", err)))

	assert.Equal(t, KindUnknown, KindOf(fmt.Errorf("connection reset")))
	assert.False(t, IsDomain(nil))
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

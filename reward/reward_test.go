package reward_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/stakeledger/reward"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		amount   uint64
		duration int64
		rate     uint64
		total    uint64
		want     uint64
	}{
		{"sole staker", 100, 5, 10, 100, 50},
		{"half share", 50, 10, 10, 100, 50},
		{"floors", 1, 1, 1, 3, 0},
		{"floors partial", 2, 5, 1, 3, 3},
		{"zero duration", 100, 0, 10, 100, 0},
		{"zero rate", 100, 50, 0, 100, 0},
		{"zero amount", 0, 50, 10, 100, 0},
		{"wide intermediate", math.MaxUint64, 1, math.MaxUint64, math.MaxUint64, math.MaxUint64},
		{"wide intermediate fits", math.MaxUint64, 1000, 1000, math.MaxUint64, 1_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reward.Calculate(tt.amount, tt.duration, tt.rate, tt.total)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateErrors(t *testing.T) {
	tests := []struct {
		name     string
		amount   uint64
		duration int64
		rate     uint64
		total    uint64
		want     error
	}{
		{"empty pool", 100, 5, 10, 0, reward.ErrDivisionByZero},
		{"empty pool wins over negative duration", 100, -5, 10, 0, reward.ErrDivisionByZero},
		{"negative duration", 100, -1, 10, 100, reward.ErrNegativeDuration},
		{"quotient too large", math.MaxUint64, 2, 1, 1, reward.ErrOverflow},
		{"rate too large", 10, 1, math.MaxUint64, 1, reward.ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reward.Calculate(tt.amount, tt.duration, tt.rate, tt.total)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBasis(t *testing.T) {
	assert.True(t, reward.BasisStakeStart.Valid())
	assert.True(t, reward.BasisLastClaim.Valid())
	assert.False(t, reward.Basis("weekly").Valid())

	assert.Equal(t, int64(10), reward.BasisStakeStart.Duration(110, 100, 105))
	assert.Equal(t, int64(5), reward.BasisLastClaim.Duration(110, 100, 105))

	// A claim time older than the current position falls back to start.
	assert.Equal(t, int64(10), reward.BasisLastClaim.Duration(110, 100, 90))
	assert.Equal(t, int64(10), reward.BasisLastClaim.Duration(110, 100, 0))
}

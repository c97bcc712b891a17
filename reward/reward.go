// Package reward computes time-proportional staking rewards.
//
// A staker's reward is their share of the pool multiplied by the pool's
// reward rate and the number of seconds elapsed:
//
//	reward = floor(amountStaked * rewardRate * duration / totalStaked)
//
// The intermediate product is carried in 256 bits so only the final quotient
// has to fit in a uint64.
package reward

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrDivisionByZero   = errors.New("stakeledger: division by zero")
	ErrOverflow         = errors.New("stakeledger: arithmetic overflow")
	ErrNegativeDuration = errors.New("stakeledger: negative duration")
)

// Calculate returns floor(amountStaked * rewardRate * duration / totalStaked).
//
// A zero totalStaked is rejected before anything else so the outcome does
// not depend on the other inputs.
func Calculate(amountStaked uint64, duration int64, rewardRate, totalStaked uint64) (uint64, error) {
	if totalStaked == 0 {
		return 0, ErrDivisionByZero
	}
	if duration < 0 {
		return 0, ErrNegativeDuration
	}

	// amount * rate fits in 128 bits and the duration multiply in 192, so
	// neither MulOverflow can trip; they are checked anyway.
	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(amountStaked), uint256.NewInt(rewardRate))
	if overflow {
		return 0, ErrOverflow
	}
	product, overflow = product.MulOverflow(product, uint256.NewInt(uint64(duration)))
	if overflow {
		return 0, ErrOverflow
	}

	quotient := product.Div(product, uint256.NewInt(totalStaked))
	if !quotient.IsUint64() {
		return 0, ErrOverflow
	}

	return quotient.Uint64(), nil
}

// Basis selects the instant from which a claim's duration is measured.
type Basis string

const (
	// BasisStakeStart measures from the record's start time on every claim.
	// Repeated claims therefore pay for overlapping intervals.
	BasisStakeStart Basis = "stake_start"

	// BasisLastClaim measures from the later of the start time and the
	// previous claim.
	BasisLastClaim Basis = "last_claim"
)

// Valid reports whether b names a known basis.
func (b Basis) Valid() bool {
	return b == BasisStakeStart || b == BasisLastClaim
}

// Since returns the instant a claim's duration starts from.
func (b Basis) Since(startTime, lastClaimTime int64) int64 {
	if b == BasisLastClaim && lastClaimTime > startTime {
		return lastClaimTime
	}
	return startTime
}

// Duration returns now minus the basis instant.
func (b Basis) Duration(now, startTime, lastClaimTime int64) int64 {
	return now - b.Since(startTime, lastClaimTime)
}

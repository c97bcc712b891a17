package stakeledger

import (
	"errors"
	"fmt"

	"github.com/xraph/stakeledger/reward"
)

// Sentinel errors for common failure scenarios.
var (
	// Operation errors
	ErrInvalidAmount       = errors.New("stakeledger: invalid amount")
	ErrInsufficientBalance = errors.New("stakeledger: insufficient staked balance")
	ErrUnauthorized        = errors.New("stakeledger: unauthorized")
	ErrTransferFailed      = errors.New("stakeledger: asset transfer failed")
	ErrRollbackFailed      = errors.New("stakeledger: rollback after failed transfer did not complete")

	// Arithmetic errors, shared with the reward calculator
	ErrArithmeticOverflow = reward.ErrOverflow
	ErrDivisionByZero     = reward.ErrDivisionByZero
	ErrNegativeDuration   = reward.ErrNegativeDuration

	// Pool errors
	ErrPoolNotFound      = errors.New("stakeledger: pool not found")
	ErrPoolExists        = errors.New("stakeledger: pool already exists")
	ErrInvariantViolated = errors.New("stakeledger: pool total does not match its stakes")

	// Stake errors
	ErrStakeNotFound = errors.New("stakeledger: stake record not found")

	// Event errors
	ErrEventBufferFull = errors.New("stakeledger: event buffer full")

	// Store errors
	ErrStoreClosed     = errors.New("stakeledger: store is closed")
	ErrMigrationFailed = errors.New("stakeledger: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("stakeledger: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPoolNotFound) ||
		errors.Is(err, ErrStakeNotFound)
}

// IsAuthorization returns true if the caller lacked the required identity.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsArithmetic returns true if the error came from checked arithmetic.
func IsArithmetic(err error) bool {
	return errors.Is(err, ErrArithmeticOverflow) ||
		errors.Is(err, ErrDivisionByZero) ||
		errors.Is(err, ErrNegativeDuration)
}

// Package store defines the persistence contract of the staking ledger.
// Backends live in the subpackages memory, sqlite, postgres and mongo.
package store

import (
	"context"

	"github.com/xraph/stakeledger/event"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/stake"
)

// Store is the unified storage interface for all ledger records.
// Implementations must be safe for concurrent use.
type Store interface {
	pool.Store
	stake.Store
	event.Store

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

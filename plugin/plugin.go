// Package plugin lets extensions observe the staking ledger. A plugin
// implements Plugin plus any of the hook interfaces below; the Registry
// discovers which hooks it implements once, at registration.
//
// Hooks run after the operation has committed. Their errors are logged and
// never change the outcome of the operation.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/stakeledger/event"
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/stake"
	"github.com/xraph/stakeledger/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts. l is the *stakeledger.Ledger.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Pool hooks
// ──────────────────────────────────────────────────

// OnPoolInitialized is called after a pool is created.
type OnPoolInitialized interface {
	Plugin
	OnPoolInitialized(ctx context.Context, p *pool.Pool) error
}

// OnRewardRateAdjusted is called after the pool initializer changes the rate.
type OnRewardRateAdjusted interface {
	Plugin
	OnRewardRateAdjusted(ctx context.Context, p *pool.Pool, oldRate uint64) error
}

// ──────────────────────────────────────────────────
// Stake hooks
// ──────────────────────────────────────────────────

// OnStaked is called after a deposit; r is the record after the deposit.
type OnStaked interface {
	Plugin
	OnStaked(ctx context.Context, r *stake.Record, amount types.Amount) error
}

// OnUnstaked is called after a withdrawal; r is the record after it.
type OnUnstaked interface {
	Plugin
	OnUnstaked(ctx context.Context, r *stake.Record, amount types.Amount) error
}

// OnRewardsClaimed is called after a claim, including claims that paid zero.
type OnRewardsClaimed interface {
	Plugin
	OnRewardsClaimed(ctx context.Context, r *stake.Record, amount uint64) error
}

// OnOperationFailed is called when a mutating operation returns an error.
type OnOperationFailed interface {
	Plugin
	OnOperationFailed(ctx context.Context, op string, poolID id.PoolID, err error) error
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnEvent receives every journal event as it is emitted.
type OnEvent interface {
	Plugin
	OnEvent(ctx context.Context, e *event.Event) error
}

// OnEventsFlushed is called after a batch of events reaches the store.
type OnEventsFlushed interface {
	Plugin
	OnEventsFlushed(ctx context.Context, count int, elapsed time.Duration) error
}

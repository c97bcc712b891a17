// Package observability provides a metrics extension for stakeledger that
// records lifecycle event counts through a MetricFactory.
package observability

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/stakeledger"
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/plugin"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/stake"
	"github.com/xraph/stakeledger/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnPoolInitialized    = (*MetricsExtension)(nil)
	_ plugin.OnRewardRateAdjusted = (*MetricsExtension)(nil)
	_ plugin.OnStaked             = (*MetricsExtension)(nil)
	_ plugin.OnUnstaked           = (*MetricsExtension)(nil)
	_ plugin.OnRewardsClaimed     = (*MetricsExtension)(nil)
	_ plugin.OnOperationFailed    = (*MetricsExtension)(nil)
	_ plugin.OnEventsFlushed      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Ledger plugin to automatically track staking metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Pool metrics
	PoolInitialized    Counter
	RewardRateAdjusted Counter

	// Stake metrics
	Staked          Counter
	StakedAmount    Histogram
	Unstaked        Counter
	UnstakedAmount  Histogram
	RewardsClaimed  Counter
	RewardsPaid     Histogram
	ZeroRewardClaim Counter

	// Journal metrics
	EventsFlushed     Counter
	EventFlushLatency Histogram

	// Error metrics
	OperationErrors   Counter
	Unauthorized      Counter
	ArithmeticErrors  Counter
	TransferFailures  Counter
	RollbackFailures  Counter
	InvariantFailures Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewPrometheusFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		PoolInitialized:    factory.Counter("stakeledger.pool.initialized"),
		RewardRateAdjusted: factory.Counter("stakeledger.pool.reward_rate.adjusted"),

		Staked:          factory.Counter("stakeledger.stake.deposited"),
		StakedAmount:    factory.Histogram("stakeledger.stake.deposited.amount"),
		Unstaked:        factory.Counter("stakeledger.stake.withdrawn"),
		UnstakedAmount:  factory.Histogram("stakeledger.stake.withdrawn.amount"),
		RewardsClaimed:  factory.Counter("stakeledger.rewards.claimed"),
		RewardsPaid:     factory.Histogram("stakeledger.rewards.paid.amount"),
		ZeroRewardClaim: factory.Counter("stakeledger.rewards.claimed.zero"),

		EventsFlushed:     factory.Counter("stakeledger.events.flushed"),
		EventFlushLatency: factory.Histogram("stakeledger.events.flush.latency_ms"),

		OperationErrors:   factory.Counter("stakeledger.operation.errors"),
		Unauthorized:      factory.Counter("stakeledger.operation.unauthorized"),
		ArithmeticErrors:  factory.Counter("stakeledger.operation.arithmetic_errors"),
		TransferFailures:  factory.Counter("stakeledger.transfer.failures"),
		RollbackFailures:  factory.Counter("stakeledger.transfer.rollback_failures"),
		InvariantFailures: factory.Counter("stakeledger.pool.invariant_failures"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Pool lifecycle hooks
// ──────────────────────────────────────────────────

// OnPoolInitialized implements plugin.OnPoolInitialized.
func (m *MetricsExtension) OnPoolInitialized(_ context.Context, _ *pool.Pool) error {
	m.PoolInitialized.Inc()
	return nil
}

// OnRewardRateAdjusted implements plugin.OnRewardRateAdjusted.
func (m *MetricsExtension) OnRewardRateAdjusted(_ context.Context, _ *pool.Pool, _ uint64) error {
	m.RewardRateAdjusted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Stake lifecycle hooks
// ──────────────────────────────────────────────────

// OnStaked implements plugin.OnStaked.
func (m *MetricsExtension) OnStaked(_ context.Context, _ *stake.Record, amount types.Amount) error {
	m.Staked.Inc()
	m.StakedAmount.Observe(float64(amount))
	return nil
}

// OnUnstaked implements plugin.OnUnstaked.
func (m *MetricsExtension) OnUnstaked(_ context.Context, _ *stake.Record, amount types.Amount) error {
	m.Unstaked.Inc()
	m.UnstakedAmount.Observe(float64(amount))
	return nil
}

// OnRewardsClaimed implements plugin.OnRewardsClaimed.
func (m *MetricsExtension) OnRewardsClaimed(_ context.Context, _ *stake.Record, amount uint64) error {
	m.RewardsClaimed.Inc()
	if amount == 0 {
		m.ZeroRewardClaim.Inc()
		return nil
	}
	m.RewardsPaid.Observe(float64(amount))
	return nil
}

// OnOperationFailed implements plugin.OnOperationFailed.
func (m *MetricsExtension) OnOperationFailed(_ context.Context, _ string, _ id.PoolID, err error) error {
	m.OperationErrors.Inc()
	switch {
	case errors.Is(err, stakeledger.ErrUnauthorized):
		m.Unauthorized.Inc()
	case stakeledger.IsArithmetic(err):
		m.ArithmeticErrors.Inc()
	case errors.Is(err, stakeledger.ErrInvariantViolated):
		m.InvariantFailures.Inc()
	case errors.Is(err, stakeledger.ErrTransferFailed):
		m.TransferFailures.Inc()
		if errors.Is(err, stakeledger.ErrRollbackFailed) {
			m.RollbackFailures.Inc()
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnEventsFlushed implements plugin.OnEventsFlushed.
func (m *MetricsExtension) OnEventsFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.EventsFlushed.Add(float64(count))
	m.EventFlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

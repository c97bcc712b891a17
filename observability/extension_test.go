package observability_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/stakeledger"
	"github.com/xraph/stakeledger/clock"
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/observability"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/reward"
	"github.com/xraph/stakeledger/store/memory"
	banks "github.com/xraph/stakeledger/transfer/memory"
)

func TestMetricsFollowLedgerOperations(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))

	admin := identity.Derive([]byte("admin"))
	alice := identity.Derive([]byte("alice"))
	bank := banks.New()
	require.NoError(t, bank.Deposit(alice, 1_000))

	now := int64(1_700_000_000)
	l := stakeledger.New(memory.New(), bank,
		stakeledger.WithLogger(slog.New(slog.DiscardHandler)),
		stakeledger.WithClock(clock.Func(func() int64 { return now })),
		stakeledger.WithRewardBasis(reward.BasisLastClaim),
		stakeledger.WithPlugin(metrics),
	)

	p := &pool.Pool{RewardRate: 10, Initializer: admin}
	require.NoError(t, l.Initialize(ctx, p))

	_, err := l.Stake(ctx, p.ID, alice, 100)
	require.NoError(t, err)
	_, err = l.Stake(ctx, p.ID, alice, 0)
	require.ErrorIs(t, err, stakeledger.ErrInvalidAmount)
	_, err = l.Unstake(ctx, p.ID, alice, admin, 1)
	require.ErrorIs(t, err, stakeledger.ErrUnauthorized)

	now += 5
	paid, err := l.ClaimRewards(ctx, p.ID, alice)
	require.NoError(t, err)
	require.Equal(t, uint64(50), paid)

	paid, err = l.ClaimRewards(ctx, p.ID, alice)
	require.NoError(t, err)
	require.Zero(t, paid)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PoolInitialized.(prometheus.Counter)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Staked.(prometheus.Counter)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RewardsClaimed.(prometheus.Counter)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ZeroRewardClaim.(prometheus.Counter)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.OperationErrors.(prometheus.Counter)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Unauthorized.(prometheus.Counter)), 0)

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "stakeledger_stake_deposited"))
}

func TestOperationFailedBreakdown(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewMetricsExtension(observability.NewPrometheusFactory(prometheus.NewRegistry()))
	poolID := id.NewPoolID()

	errs := []error{
		stakeledger.ErrArithmeticOverflow,
		stakeledger.ErrDivisionByZero,
		fmt.Errorf("%w: bank down", stakeledger.ErrTransferFailed),
		errors.Join(stakeledger.ErrTransferFailed, stakeledger.ErrRollbackFailed),
		stakeledger.ErrInvariantViolated,
	}
	for _, err := range errs {
		require.NoError(t, metrics.OnOperationFailed(ctx, "op", poolID, err))
	}

	assert.InDelta(t, 5, testutil.ToFloat64(metrics.OperationErrors.(prometheus.Counter)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.ArithmeticErrors.(prometheus.Counter)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.TransferFailures.(prometheus.Counter)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RollbackFailures.(prometheus.Counter)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.InvariantFailures.(prometheus.Counter)), 0)
}

func TestEventsFlushed(t *testing.T) {
	metrics := observability.NewMetricsExtension(observability.NewPrometheusFactory(prometheus.NewRegistry()))

	require.NoError(t, metrics.OnEventsFlushed(context.Background(), 7, 3*time.Millisecond))
	require.NoError(t, metrics.OnEventsFlushed(context.Background(), 2, time.Millisecond))

	assert.InDelta(t, 9, testutil.ToFloat64(metrics.EventsFlushed.(prometheus.Counter)), 0)
}

func TestPrometheusFactoryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	a := observability.NewPrometheusFactory(reg)
	b := observability.NewPrometheusFactory(reg)

	c1 := a.Counter("stakeledger.test.count")
	c2 := b.Counter("stakeledger.test.count")
	c1.Inc()
	c2.Add(2)

	assert.Same(t, a.Counter("stakeledger.test.count"), c1)
	assert.InDelta(t, 3, testutil.ToFloat64(c1.(prometheus.Counter)), 0)

	h := a.Histogram("stakeledger.test.latency_ms")
	h.Observe(1)
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "stakeledger_test_latency_ms"))
}

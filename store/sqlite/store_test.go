package sqlite_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/stakeledger"
	"github.com/xraph/stakeledger/clock"
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/stake"
	"github.com/xraph/stakeledger/store/sqlite"
	banks "github.com/xraph/stakeledger/transfer/memory"
	"github.com/xraph/stakeledger/types"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()

	drv := sqlitedriver.New()
	require.NoError(t, drv.Open(ctx, filepath.Join(t.TempDir(), "stakeledger.db")))
	db, err := grove.Open(drv)
	require.NoError(t, err)

	s := sqlite.New(db)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func newPool(t *testing.T, s *sqlite.Store) *pool.Pool {
	t.Helper()
	p := &pool.Pool{
		ID:          id.NewPoolID(),
		RewardRate:  10,
		Initializer: identity.Derive([]byte("init")),
		RewardMint:  identity.Derive([]byte("mint")),
		Entity:      types.NewEntity(),
	}
	require.NoError(t, s.CreatePool(context.Background(), p))
	return p
}

func poolTotal(t *testing.T, s *sqlite.Store, poolID id.PoolID) types.Amount {
	t.Helper()
	p, err := s.GetPool(context.Background(), poolID)
	require.NoError(t, err)
	return p.TotalStaked
}

func TestCommitStakeKeepsPoolTotal(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	p := newPool(t, s)
	alice := identity.Derive([]byte("alice"))
	bob := identity.Derive([]byte("bob"))

	// Insert path.
	rec := stake.New(p.ID, alice)
	rec.AmountStaked = 100
	rec.StartTime = 1000
	p.TotalStaked = 100
	require.NoError(t, s.CommitStake(ctx, p, rec))
	assert.Equal(t, types.Amount(100), poolTotal(t, s, p.ID))

	inserted, err := s.GetStake(ctx, rec.Address)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(100), inserted.AmountStaked)
	assert.Equal(t, int64(1000), inserted.StartTime)

	// Update path on the same address.
	rec.AmountStaked = 250
	rec.LastClaimTime = 2000
	p.TotalStaked = 250
	require.NoError(t, s.CommitStake(ctx, p, rec))
	assert.Equal(t, types.Amount(250), poolTotal(t, s, p.ID))

	updated, err := s.GetStake(ctx, rec.Address)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(250), updated.AmountStaked)
	assert.Equal(t, int64(2000), updated.LastClaimTime)
	assert.Equal(t, int64(1000), updated.StartTime)

	// A second owner moves the total again.
	other := stake.New(p.ID, bob)
	other.AmountStaked = 50
	p.TotalStaked = 300
	require.NoError(t, s.CommitStake(ctx, p, other))
	assert.Equal(t, types.Amount(300), poolTotal(t, s, p.ID))

	// Values above the signed 64-bit range survive the round trip.
	rec.AmountStaked = types.Amount(1<<64 - 1 - 50)
	p.TotalStaked = types.Amount(1<<64 - 1)
	require.NoError(t, s.CommitStake(ctx, p, rec))
	assert.Equal(t, types.Amount(1<<64-1), poolTotal(t, s, p.ID))

	recs, err := s.ListStakes(ctx, p.ID, stake.ListOpts{ActiveOnly: true})
	require.NoError(t, err)
	var sum types.Amount
	for _, r := range recs {
		var ok bool
		sum, ok = sum.Add(r.AmountStaked)
		require.True(t, ok)
	}
	assert.Equal(t, poolTotal(t, s, p.ID), sum)
}

func TestCommitStakeMissingPoolWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	existing := newPool(t, s)

	missing := &pool.Pool{ID: id.NewPoolID(), TotalStaked: 5}
	rec := stake.New(missing.ID, identity.Derive([]byte("alice")))
	rec.AmountStaked = 5

	require.ErrorIs(t, s.CommitStake(ctx, missing, rec), stakeledger.ErrPoolNotFound)

	_, err := s.GetStake(ctx, rec.Address)
	require.ErrorIs(t, err, stakeledger.ErrStakeNotFound)
	_, err = s.GetPool(ctx, missing.ID)
	require.ErrorIs(t, err, stakeledger.ErrPoolNotFound)
	assert.Equal(t, types.Amount(0), poolTotal(t, s, existing.ID))
}

func TestLedgerOnSQLiteVerifies(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	bank := banks.New()
	alice := identity.Derive([]byte("alice"))
	bob := identity.Derive([]byte("bob"))
	require.NoError(t, bank.Deposit(alice, 1_000))
	require.NoError(t, bank.Deposit(bob, 1_000))

	l := stakeledger.New(s, bank,
		stakeledger.WithLogger(slog.New(slog.DiscardHandler)),
		stakeledger.WithClock(clock.Fixed(1_700_000_000)),
	)
	p := &pool.Pool{RewardRate: 10, Initializer: identity.Derive([]byte("admin"))}
	require.NoError(t, l.Initialize(ctx, p))

	_, err := l.Stake(ctx, p.ID, alice, 300)
	require.NoError(t, err)
	_, err = l.Stake(ctx, p.ID, bob, 200)
	require.NoError(t, err)
	_, err = l.Unstake(ctx, p.ID, alice, alice, 120)
	require.NoError(t, err)

	require.NoError(t, l.VerifyPool(ctx, p.ID))
	assert.Equal(t, types.Amount(380), poolTotal(t, s, p.ID))
	assert.Equal(t, types.Amount(380), bank.Balance(p.Vault()))
}

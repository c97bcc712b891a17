package extension

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/stakeledger"
	"github.com/xraph/stakeledger/clock"
	"github.com/xraph/stakeledger/store"
	"github.com/xraph/stakeledger/store/memory"
	banks "github.com/xraph/stakeledger/transfer/memory"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{EventBatchSize: 7})

	assert.Equal(t, 7, cfg.EventBatchSize)
	assert.Equal(t, "stake_start", cfg.RewardBasis)
	assert.Equal(t, 5*time.Second, cfg.EventFlushInterval)
	assert.Equal(t, 10000, cfg.EventBufferSize)
	assert.Equal(t, 10*time.Minute, cfg.NTPSyncInterval)
}

func TestMergeConfigurations(t *testing.T) {
	yaml := Config{
		RewardBasis:    "last_claim",
		EventBatchSize: 50,
	}
	programmatic := Config{
		RewardBasis:        "stake_start",
		EventBatchSize:     10,
		EventFlushInterval: time.Second,
		NTPServer:          "time.example.org",
		DisableMigrate:     true,
	}

	cfg := mergeConfigurations(yaml, programmatic)

	assert.Equal(t, "last_claim", cfg.RewardBasis, "yaml wins")
	assert.Equal(t, 50, cfg.EventBatchSize, "yaml wins")
	assert.Equal(t, time.Second, cfg.EventFlushInterval, "programmatic fills gaps")
	assert.Equal(t, "time.example.org", cfg.NTPServer)
	assert.True(t, cfg.DisableMigrate)
	assert.Equal(t, 5*time.Second, cfg.PluginTimeout, "defaults fill the rest")
}

func TestBuildLedgerOpts(t *testing.T) {
	t.Run("unknown basis", func(t *testing.T) {
		e := &Extension{config: mergeWithDefaults(Config{RewardBasis: "whenever"})}
		_, err := e.buildLedgerOpts()
		assert.Error(t, err)
	})

	t.Run("ntp clock", func(t *testing.T) {
		e := &Extension{config: mergeWithDefaults(Config{NTPServer: "time.example.org"})}
		_, err := e.buildLedgerOpts()
		require.NoError(t, err)
		assert.NotNil(t, e.ntp)
	})

	t.Run("non-positive ntp interval", func(t *testing.T) {
		e := &Extension{config: mergeWithDefaults(Config{
			NTPServer:       "time.example.org",
			NTPSyncInterval: -time.Second,
		})}
		_, err := e.buildLedgerOpts()
		assert.Error(t, err)
		assert.Nil(t, e.ntp)
	})

	t.Run("explicit clock wins over ntp", func(t *testing.T) {
		e := New(WithClock(clock.Fixed(1)), WithNTPServer("time.example.org"))
		e.config = mergeWithDefaults(e.config)
		_, err := e.buildLedgerOpts()
		require.NoError(t, err)
		assert.Nil(t, e.ntp)
	})
}

func TestUnmigratedSkipsMigrate(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Close())

	u := unmigrated{s}
	assert.NoError(t, u.Migrate(context.Background()))
	assert.Error(t, u.Ping(context.Background()))
}

type brokenSchema struct {
	store.Store
}

func (brokenSchema) Migrate(context.Context) error { return errors.New("schema locked") }

func TestStartFailureDoesNotLeaveNTPRunning(t *testing.T) {
	var syncs atomic.Int32
	e := New()
	e.config = mergeWithDefaults(Config{NTPServer: "time.example.org", NTPSyncInterval: time.Millisecond})
	e.ntp = clock.NewNTP(e.config.NTPServer, clock.WithQuery(func(string) (time.Duration, error) {
		syncs.Add(1)
		return 0, nil
	}))
	e.engine = stakeledger.New(brokenSchema{memory.New()}, banks.New(),
		stakeledger.WithLogger(slog.New(slog.DiscardHandler)),
		stakeledger.WithClock(e.ntp),
	)

	require.Error(t, e.Start(context.Background()))
	assert.Nil(t, e.stopNTP)
	assert.Never(t, func() bool { return syncs.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

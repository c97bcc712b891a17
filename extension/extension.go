// Package extension provides the Forge extension adapter for stakeledger.
//
// It implements the forge.Extension interface to integrate the staking
// ledger into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.stakeledger" or
// "stakeledger" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/stakeledger"
	"github.com/xraph/stakeledger/clock"
	"github.com/xraph/stakeledger/observability"
	"github.com/xraph/stakeledger/reward"
	"github.com/xraph/stakeledger/store"
	"github.com/xraph/stakeledger/store/memory"
	"github.com/xraph/stakeledger/transfer"
	banks "github.com/xraph/stakeledger/transfer/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "stakeledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Staking pool ledger with time-based rewards"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts stakeledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *stakeledger.Ledger
	store      store.Store
	transfers  transfer.Service
	clock      clock.Clock
	ntp        *clock.NTP
	stopNTP    context.CancelFunc
	ledgerOpts []stakeledger.Option
}

// New creates a new stakeledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *stakeledger.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	opts, err := e.buildLedgerOpts()
	if err != nil {
		return err
	}

	if e.store == nil {
		e.store = memory.New()
	}
	if e.transfers == nil {
		e.transfers = banks.New()
	}

	s := e.store
	if e.config.DisableMigrate {
		s = unmigrated{s}
	}

	e.engine = stakeledger.New(s, e.transfers, opts...)

	return vessel.Provide(fapp.Container(), func() (*stakeledger.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("stakeledger: extension not initialized")
	}

	if e.ntp != nil {
		if err := e.ntp.Sync(); err != nil {
			e.Logger().Warn("stakeledger: initial NTP sync failed, using host clock",
				forge.F("server", e.config.NTPServer),
				forge.F("error", err.Error()),
			)
		}
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	if e.ntp != nil {
		ntpCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		e.stopNTP = cancel
		go e.ntp.Run(ntpCtx, e.config.NTPSyncInterval)
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.stopNTP != nil {
		e.stopNTP()
	}
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("stakeledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs stakeledger.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() ([]stakeledger.Option, error) {
	opts := make([]stakeledger.Option, 0, len(e.ledgerOpts)+6)

	basis := reward.Basis(e.config.RewardBasis)
	if !basis.Valid() {
		return nil, fmt.Errorf("stakeledger: unknown reward_basis %q", e.config.RewardBasis)
	}

	opts = append(opts,
		stakeledger.WithRewardBasis(basis),
		stakeledger.WithEventConfig(e.config.EventBatchSize, e.config.EventFlushInterval),
		stakeledger.WithEventBufferSize(e.config.EventBufferSize),
		stakeledger.WithPluginTimeout(e.config.PluginTimeout),
	)

	switch {
	case e.clock != nil:
		opts = append(opts, stakeledger.WithClock(e.clock))
	case e.config.NTPServer != "":
		if e.config.NTPSyncInterval <= 0 {
			return nil, fmt.Errorf("stakeledger: ntp_sync_interval must be positive, got %s", e.config.NTPSyncInterval)
		}
		e.ntp = clock.NewNTP(e.config.NTPServer)
		opts = append(opts, stakeledger.WithClock(e.ntp))
	}

	if e.config.EnableMetrics {
		factory := observability.NewPrometheusFactory(nil)
		opts = append(opts, stakeledger.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	// Pass-through options go last so they win.
	opts = append(opts, e.ledgerOpts...)

	return opts, nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("stakeledger: configuration is required but not found in config files; " +
				"ensure 'extensions.stakeledger' or 'stakeledger' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("stakeledger: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("reward_basis", e.config.RewardBasis),
		forge.F("event_batch_size", e.config.EventBatchSize),
		forge.F("event_flush_interval", e.config.EventFlushInterval),
		forge.F("event_buffer_size", e.config.EventBufferSize),
		forge.F("plugin_timeout", e.config.PluginTimeout),
		forge.F("ntp_server", e.config.NTPServer),
		forge.F("enable_metrics", e.config.EnableMetrics),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.stakeledger", "stakeledger"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("stakeledger: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("stakeledger: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// unmigrated skips Migrate for stores whose schema is managed elsewhere.
type unmigrated struct {
	store.Store
}

func (unmigrated) Migrate(context.Context) error { return nil }

package extension

import (
	"time"

	"github.com/xraph/stakeledger"
	"github.com/xraph/stakeledger/clock"
	"github.com/xraph/stakeledger/plugin"
	"github.com/xraph/stakeledger/store"
	"github.com/xraph/stakeledger/transfer"
)

// Option configures the stakeledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTransferService sets the asset transfer service. Without one the
// extension uses an in-process bank.
func WithTransferService(ts transfer.Service) Option {
	return func(e *Extension) {
		e.transfers = ts
	}
}

// WithClock sets the source of ledger time. It takes precedence over
// Config.NTPServer.
func WithClock(c clock.Clock) Option {
	return func(e *Extension) {
		e.clock = c
	}
}

// WithLedgerOption passes a stakeledger.Option through to the underlying engine.
func WithLedgerOption(opt stakeledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, stakeledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithRewardBasis sets the claim duration basis ("stake_start" or "last_claim").
func WithRewardBasis(basis string) Option {
	return func(e *Extension) { e.config.RewardBasis = basis }
}

// WithEventBatchSize sets the number of journal events to buffer before flushing.
func WithEventBatchSize(size int) Option {
	return func(e *Extension) { e.config.EventBatchSize = size }
}

// WithEventFlushInterval sets how frequently the journal is flushed.
func WithEventFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.EventFlushInterval = d }
}

// WithNTPServer corrects ledger time against the given NTP server.
func WithNTPServer(host string) Option {
	return func(e *Extension) { e.config.NTPServer = host }
}

// WithMetrics registers the Prometheus-backed metrics plugin.
func WithMetrics() Option {
	return func(e *Extension) { e.config.EnableMetrics = true }
}

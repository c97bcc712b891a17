package stakeledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/stakeledger/clock"
	"github.com/xraph/stakeledger/event"
	"github.com/xraph/stakeledger/plugin"
	"github.com/xraph/stakeledger/reward"
	"github.com/xraph/stakeledger/store"
	"github.com/xraph/stakeledger/transfer"
)

// Ledger is the staking engine. It owns the accounting for every pool in
// its store and is the only writer those records should have: the per-pool
// locks that serialize operations live in this value.
type Ledger struct {
	store     store.Store
	transfers transfer.Service
	clock     clock.Clock
	plugins   *plugin.Registry
	logger    *slog.Logger
	basis     reward.Basis
	locks     poolLocks

	// Event journal
	eventBuffer chan *event.Event
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup

	// Configuration
	eventBufferSize    int
	eventBatchSize     int
	eventFlushInterval time.Duration
}

// New creates a new Ledger instance.
func New(s store.Store, ts transfer.Service, opts ...Option) *Ledger {
	l := &Ledger{
		store:              s,
		transfers:          ts,
		clock:              clock.System{},
		plugins:            plugin.NewRegistry(),
		logger:             slog.Default(),
		basis:              reward.BasisStakeStart,
		stopChan:           make(chan struct{}),
		eventBufferSize:    10000,
		eventBatchSize:     100,
		eventFlushInterval: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.eventBuffer = make(chan *event.Event, l.eventBufferSize)

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithClock sets the source of ledger time.
func WithClock(c clock.Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// WithRewardBasis selects how claim durations are measured.
// Unknown values are ignored.
func WithRewardBasis(b reward.Basis) Option {
	return func(l *Ledger) {
		if b.Valid() {
			l.basis = b
		}
	}
}

// WithEventConfig configures journal batching.
func WithEventConfig(batchSize int, flushInterval time.Duration) Option {
	return func(l *Ledger) {
		if batchSize > 0 {
			l.eventBatchSize = batchSize
		}
		if flushInterval > 0 {
			l.eventFlushInterval = flushInterval
		}
	}
}

// WithEventBufferSize sets how many unflushed events may queue before new
// ones are dropped.
func WithEventBufferSize(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.eventBufferSize = n
		}
	}
}

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry {
	return l.plugins
}

// Store returns the underlying store. Reads made through it skip the pool
// locks and may see a change that is rolled back a moment later.
func (l *Ledger) Store() store.Store {
	return l.store
}

// Start migrates the store, initializes plugins and starts the journal worker.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.wg.Add(1)
	go l.journalWorker(context.WithoutCancel(ctx))

	l.logger.Info("stakeledger started",
		"reward_basis", l.basis,
		"batch_size", l.eventBatchSize,
		"flush_interval", l.eventFlushInterval,
	)

	return nil
}

// Stop flushes the journal, shuts plugins down and closes the store.
// Calling Stop more than once is a no-op.
func (l *Ledger) Stop() error {
	var err error
	l.stopOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()

		ctx := context.Background()
		l.plugins.EmitShutdown(ctx)

		err = l.store.Close()
	})
	return err
}

// ──────────────────────────────────────────────────
// Event journal
// ──────────────────────────────────────────────────

// emit publishes e to plugins and queues it for the store. A full buffer
// drops the event rather than stall the operation that produced it.
func (l *Ledger) emit(ctx context.Context, e *event.Event) {
	l.plugins.EmitEvent(ctx, e)

	select {
	case l.eventBuffer <- e:
	default:
		l.logger.Warn("dropping ledger event",
			"error", ErrEventBufferFull,
			"kind", e.Kind,
			"pool_id", e.PoolID.String(),
		)
	}
}

// journalWorker flushes emitted events to the store.
func (l *Ledger) journalWorker(ctx context.Context) {
	defer l.wg.Done()

	batch := make([]*event.Event, 0, l.eventBatchSize)
	ticker := time.NewTicker(l.eventFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			// Final flush of everything still queued.
		drain:
			for {
				select {
				case e := <-l.eventBuffer:
					batch = append(batch, e)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				l.flushEvents(ctx, batch)
			}
			return

		case e := <-l.eventBuffer:
			batch = append(batch, e)
			if len(batch) >= l.eventBatchSize {
				l.flushEvents(ctx, batch)
				batch = make([]*event.Event, 0, l.eventBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				l.flushEvents(ctx, batch)
				batch = make([]*event.Event, 0, l.eventBatchSize)
			}
		}
	}
}

func (l *Ledger) flushEvents(ctx context.Context, batch []*event.Event) {
	start := time.Now()

	if err := l.store.IngestEvents(ctx, batch); err != nil {
		l.logger.Error("failed to flush event batch",
			"error", err,
			"batch_size", len(batch),
		)
		return
	}

	elapsed := time.Since(start)
	l.plugins.EmitEventsFlushed(ctx, len(batch), elapsed)

	l.logger.Debug("flushed event batch",
		"batch_size", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

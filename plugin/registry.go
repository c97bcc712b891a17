package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/stakeledger/event"
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/stake"
	"github.com/xraph/stakeledger/types"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook lists are cached by type at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration
	hooks   hookSet
}

// hookSet holds the plugins implementing each hook.
type hookSet struct {
	onInit               []OnInit
	onShutdown           []OnShutdown
	onPoolInitialized    []OnPoolInitialized
	onRewardRateAdjusted []OnRewardRateAdjusted
	onStaked             []OnStaked
	onUnstaked           []OnUnstaked
	onRewardsClaimed     []OnRewardsClaimed
	onOperationFailed    []OnOperationFailed
	onEvent              []OnEvent
	onEventsFlushed      []OnEventsFlushed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call hook timeout. Non-positive values are ignored.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.hooks.onInit = append(r.hooks.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.hooks.onShutdown = append(r.hooks.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnPoolInitialized); ok {
		r.hooks.onPoolInitialized = append(r.hooks.onPoolInitialized, v)
		hooks = append(hooks, "OnPoolInitialized")
	}
	if v, ok := p.(OnRewardRateAdjusted); ok {
		r.hooks.onRewardRateAdjusted = append(r.hooks.onRewardRateAdjusted, v)
		hooks = append(hooks, "OnRewardRateAdjusted")
	}
	if v, ok := p.(OnStaked); ok {
		r.hooks.onStaked = append(r.hooks.onStaked, v)
		hooks = append(hooks, "OnStaked")
	}
	if v, ok := p.(OnUnstaked); ok {
		r.hooks.onUnstaked = append(r.hooks.onUnstaked, v)
		hooks = append(hooks, "OnUnstaked")
	}
	if v, ok := p.(OnRewardsClaimed); ok {
		r.hooks.onRewardsClaimed = append(r.hooks.onRewardsClaimed, v)
		hooks = append(hooks, "OnRewardsClaimed")
	}
	if v, ok := p.(OnOperationFailed); ok {
		r.hooks.onOperationFailed = append(r.hooks.onOperationFailed, v)
		hooks = append(hooks, "OnOperationFailed")
	}
	if v, ok := p.(OnEvent); ok {
		r.hooks.onEvent = append(r.hooks.onEvent, v)
		hooks = append(hooks, "OnEvent")
	}
	if v, ok := p.(OnEventsFlushed); ok {
		r.hooks.onEventsFlushed = append(r.hooks.onEventsFlushed, v)
		hooks = append(hooks, "OnEventsFlushed")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit runs call for every plugin in hooks, logging failures under hook.
func emit[T Plugin](ctx context.Context, r *Registry, hooks []T, hook string, call func(T) error) {
	for _, p := range hooks {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return call(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

func (r *Registry) snapshot() hookSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hooks
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger any) {
	emit(ctx, r, r.snapshot().onInit, "OnInit", func(p OnInit) error {
		return p.OnInit(ctx, ledger)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, r.snapshot().onShutdown, "OnShutdown", func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitPoolInitialized emits a pool initialized event.
func (r *Registry) EmitPoolInitialized(ctx context.Context, p *pool.Pool) {
	emit(ctx, r, r.snapshot().onPoolInitialized, "OnPoolInitialized", func(h OnPoolInitialized) error {
		return h.OnPoolInitialized(ctx, p)
	})
}

// EmitRewardRateAdjusted emits a reward rate change.
func (r *Registry) EmitRewardRateAdjusted(ctx context.Context, p *pool.Pool, oldRate uint64) {
	emit(ctx, r, r.snapshot().onRewardRateAdjusted, "OnRewardRateAdjusted", func(h OnRewardRateAdjusted) error {
		return h.OnRewardRateAdjusted(ctx, p, oldRate)
	})
}

// EmitStaked emits a deposit.
func (r *Registry) EmitStaked(ctx context.Context, rec *stake.Record, amount types.Amount) {
	emit(ctx, r, r.snapshot().onStaked, "OnStaked", func(h OnStaked) error {
		return h.OnStaked(ctx, rec, amount)
	})
}

// EmitUnstaked emits a withdrawal.
func (r *Registry) EmitUnstaked(ctx context.Context, rec *stake.Record, amount types.Amount) {
	emit(ctx, r, r.snapshot().onUnstaked, "OnUnstaked", func(h OnUnstaked) error {
		return h.OnUnstaked(ctx, rec, amount)
	})
}

// EmitRewardsClaimed emits a claim.
func (r *Registry) EmitRewardsClaimed(ctx context.Context, rec *stake.Record, amount uint64) {
	emit(ctx, r, r.snapshot().onRewardsClaimed, "OnRewardsClaimed", func(h OnRewardsClaimed) error {
		return h.OnRewardsClaimed(ctx, rec, amount)
	})
}

// EmitOperationFailed emits a failed operation.
func (r *Registry) EmitOperationFailed(ctx context.Context, op string, poolID id.PoolID, opErr error) {
	emit(ctx, r, r.snapshot().onOperationFailed, "OnOperationFailed", func(h OnOperationFailed) error {
		return h.OnOperationFailed(ctx, op, poolID, opErr)
	})
}

// EmitEvent hands a journal event to every OnEvent plugin.
func (r *Registry) EmitEvent(ctx context.Context, e *event.Event) {
	emit(ctx, r, r.snapshot().onEvent, "OnEvent", func(h OnEvent) error {
		return h.OnEvent(ctx, e)
	})
}

// EmitEventsFlushed emits a journal flush.
func (r *Registry) EmitEventsFlushed(ctx context.Context, count int, elapsed time.Duration) {
	emit(ctx, r, r.snapshot().onEventsFlushed, "OnEventsFlushed", func(h OnEventsFlushed) error {
		return h.OnEventsFlushed(ctx, count, elapsed)
	})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the staking pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}

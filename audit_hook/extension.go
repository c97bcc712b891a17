// Package audithook bridges stakeledger lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/stakeledger"
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/plugin"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/stake"
	"github.com/xraph/stakeledger/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnPoolInitialized    = (*Extension)(nil)
	_ plugin.OnRewardRateAdjusted = (*Extension)(nil)
	_ plugin.OnStaked             = (*Extension)(nil)
	_ plugin.OnUnstaked           = (*Extension)(nil)
	_ plugin.OnRewardsClaimed     = (*Extension)(nil)
	_ plugin.OnOperationFailed    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single audit trail entry.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges stakeledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Pool lifecycle hooks
// ──────────────────────────────────────────────────

// OnPoolInitialized implements plugin.OnPoolInitialized.
func (e *Extension) OnPoolInitialized(ctx context.Context, p *pool.Pool) error {
	return e.record(ctx, ActionPoolInitialized, SeverityInfo, OutcomeSuccess,
		ResourcePool, p.ID.String(), CategoryGovernance, nil,
		"initializer", p.Initializer.String(),
		"reward_rate", p.RewardRate,
		"reward_mint", p.RewardMint.String(),
	)
}

// OnRewardRateAdjusted implements plugin.OnRewardRateAdjusted.
func (e *Extension) OnRewardRateAdjusted(ctx context.Context, p *pool.Pool, oldRate uint64) error {
	return e.record(ctx, ActionRewardRateAdjusted, SeverityWarning, OutcomeSuccess,
		ResourcePool, p.ID.String(), CategoryGovernance, nil,
		"old_rate", oldRate,
		"new_rate", p.RewardRate,
	)
}

// ──────────────────────────────────────────────────
// Stake lifecycle hooks
// ──────────────────────────────────────────────────

// OnStaked implements plugin.OnStaked.
func (e *Extension) OnStaked(ctx context.Context, r *stake.Record, amount types.Amount) error {
	return e.record(ctx, ActionStaked, SeverityInfo, OutcomeSuccess,
		ResourceStake, r.Address.String(), CategoryStaking, nil,
		"pool_id", r.PoolID.String(),
		"owner", r.Owner.String(),
		"amount", amount.String(),
		"balance", r.AmountStaked.String(),
	)
}

// OnUnstaked implements plugin.OnUnstaked.
func (e *Extension) OnUnstaked(ctx context.Context, r *stake.Record, amount types.Amount) error {
	return e.record(ctx, ActionUnstaked, SeverityInfo, OutcomeSuccess,
		ResourceStake, r.Address.String(), CategoryStaking, nil,
		"pool_id", r.PoolID.String(),
		"owner", r.Owner.String(),
		"amount", amount.String(),
		"balance", r.AmountStaked.String(),
	)
}

// OnRewardsClaimed implements plugin.OnRewardsClaimed.
func (e *Extension) OnRewardsClaimed(ctx context.Context, r *stake.Record, amount uint64) error {
	return e.record(ctx, ActionRewardsClaimed, SeverityInfo, OutcomeSuccess,
		ResourceStake, r.Address.String(), CategoryRewards, nil,
		"pool_id", r.PoolID.String(),
		"owner", r.Owner.String(),
		"amount", amount,
		"last_claim_time", r.LastClaimTime,
	)
}

// OnOperationFailed implements plugin.OnOperationFailed. Authorization
// denials and settlement failures get their own actions.
func (e *Extension) OnOperationFailed(ctx context.Context, op string, poolID id.PoolID, opErr error) error {
	action, severity, category := ActionOperationFailed, SeverityError, CategoryStaking
	switch {
	case errors.Is(opErr, stakeledger.ErrUnauthorized):
		action, severity, category = ActionUnauthorized, SeverityWarning, CategoryAccess
	case errors.Is(opErr, stakeledger.ErrRollbackFailed):
		action, severity, category = ActionTransferFailed, SeverityCritical, CategorySettlement
	case errors.Is(opErr, stakeledger.ErrTransferFailed):
		action, category = ActionTransferFailed, CategorySettlement
	}

	return e.record(ctx, action, severity, OutcomeFailure,
		ResourcePool, poolID.String(), category, opErr,
		"operation", op,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

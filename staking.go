package stakeledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/stakeledger/event"
	"github.com/xraph/stakeledger/guard"
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/reward"
	"github.com/xraph/stakeledger/stake"
	"github.com/xraph/stakeledger/transfer"
	"github.com/xraph/stakeledger/types"
)

// Operation names reported to OnOperationFailed.
const (
	OpInitialize       = "initialize"
	OpStake            = "stake"
	OpUnstake          = "unstake"
	OpClaimRewards     = "claim_rewards"
	OpAdjustRewardRate = "adjust_reward_rate"
)

// ──────────────────────────────────────────────────
// Pools
// ──────────────────────────────────────────────────

// Initialize creates p with nothing staked. A nil ID is filled in, and a
// nil RewardMint defaults to a mint derived from the pool ID. Fails with
// ErrPoolExists if a pool already lives at p.ID.
func (l *Ledger) Initialize(ctx context.Context, p *pool.Pool) error {
	if err := l.initialize(ctx, p); err != nil {
		return l.failed(ctx, OpInitialize, p.ID, err)
	}

	l.plugins.EmitPoolInitialized(ctx, p.Clone())

	e := event.New(event.KindPoolInitialized, p.ID, p.Initializer, 0, l.clock.Now())
	e.RewardRate = p.RewardRate
	l.emit(ctx, e)

	l.logger.Info("pool initialized",
		"pool_id", p.ID.String(),
		"reward_rate", p.RewardRate,
		"initializer", p.Initializer.String(),
	)

	return nil
}

func (l *Ledger) initialize(ctx context.Context, p *pool.Pool) error {
	if p.Initializer.IsNil() {
		return fmt.Errorf("%w: pool initializer must sign", ErrUnauthorized)
	}
	if p.ID.IsNil() {
		p.ID = id.NewPoolID()
	}

	unlock := l.locks.lock(p.ID)
	defer unlock()

	if _, err := l.store.GetPool(ctx, p.ID); err == nil {
		return ErrPoolExists
	} else if !errors.Is(err, ErrPoolNotFound) {
		return err
	}

	p.TotalStaked = 0
	if p.RewardMint.IsNil() {
		p.RewardMint = identity.Derive([]byte("reward_mint"), []byte(p.ID.String()))
	}
	p.Entity = types.NewEntity()

	if prov, ok := l.transfers.(transfer.Provisioner); ok {
		if err := prov.Provision(ctx, transfer.Provision{
			Vault:      p.Vault(),
			RewardMint: p.RewardMint,
			Authority:  p.Authority(),
		}); err != nil {
			return fmt.Errorf("%w: provision pool accounts: %w", ErrTransferFailed, err)
		}
	}

	return l.store.CreatePool(ctx, p)
}

// GetPool returns a pool by ID.
func (l *Ledger) GetPool(ctx context.Context, poolID id.PoolID) (*pool.Pool, error) {
	unlock := l.locks.rlock(poolID)
	defer unlock()

	return l.store.GetPool(ctx, poolID)
}

// ListPools lists pools in ID order. Each pool is re-read under its lock,
// so a total that is about to be rolled back is never returned.
func (l *Ledger) ListPools(ctx context.Context, opts pool.ListOpts) ([]*pool.Pool, error) {
	pools, err := l.store.ListPools(ctx, opts)
	if err != nil {
		return nil, err
	}
	for i, p := range pools {
		if pools[i], err = l.GetPool(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return pools, nil
}

// AdjustRewardRate replaces the pool's reward rate. Only the pool's
// initializer may do this. The new rate is not range checked.
func (l *Ledger) AdjustRewardRate(ctx context.Context, poolID id.PoolID, caller identity.Identity, newRate uint64) error {
	p, oldRate, now, err := l.adjustRewardRate(ctx, poolID, caller, newRate)
	if err != nil {
		return l.failed(ctx, OpAdjustRewardRate, poolID, err)
	}

	l.plugins.EmitRewardRateAdjusted(ctx, p, oldRate)

	e := event.New(event.KindRewardRateAdjusted, poolID, caller, 0, now)
	e.RewardRate = newRate
	l.emit(ctx, e)

	l.logger.Info("reward rate adjusted",
		"pool_id", poolID.String(),
		"old_rate", oldRate,
		"new_rate", newRate,
	)

	return nil
}

func (l *Ledger) adjustRewardRate(ctx context.Context, poolID id.PoolID, caller identity.Identity, newRate uint64) (*pool.Pool, uint64, int64, error) {
	unlock := l.locks.lock(poolID)
	defer unlock()

	p, err := l.store.GetPool(ctx, poolID)
	if err != nil {
		return nil, 0, 0, err
	}

	if d := guard.Authorize(guard.PoolInitializer(p.Initializer), caller); !d.Allowed {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnauthorized, d.Reason)
	}

	if err := l.store.SetRewardRate(ctx, poolID, newRate); err != nil {
		return nil, 0, 0, err
	}

	oldRate := p.RewardRate
	p.RewardRate = newRate
	return p, oldRate, l.clock.Now(), nil
}

// ──────────────────────────────────────────────────
// Stakes
// ──────────────────────────────────────────────────

// GetStake returns owner's record in the pool, or the zeroed record it
// would start from if owner has never staked. Nothing is written.
func (l *Ledger) GetStake(ctx context.Context, poolID id.PoolID, owner identity.Identity) (*stake.Record, error) {
	unlock := l.locks.rlock(poolID)
	defer unlock()

	if _, err := l.store.GetPool(ctx, poolID); err != nil {
		return nil, err
	}
	return l.loadStake(ctx, poolID, owner)
}

// ListStakes lists the pool's stake records.
func (l *Ledger) ListStakes(ctx context.Context, poolID id.PoolID, opts stake.ListOpts) ([]*stake.Record, error) {
	unlock := l.locks.rlock(poolID)
	defer unlock()

	return l.store.ListStakes(ctx, poolID, opts)
}

// Stake deposits amount from caller into the pool. The first deposit into a
// zero-balance record restarts its StartTime.
func (l *Ledger) Stake(ctx context.Context, poolID id.PoolID, caller identity.Identity, amount types.Amount) (*stake.Record, error) {
	rec, now, err := l.stake(ctx, poolID, caller, amount)
	if err != nil {
		return nil, l.failed(ctx, OpStake, poolID, err)
	}

	l.plugins.EmitStaked(ctx, rec.Clone(), amount)
	l.emit(ctx, event.New(event.KindStaked, poolID, caller, amount, now))

	l.logger.Debug("staked",
		"pool_id", poolID.String(),
		"owner", caller.String(),
		"amount", amount,
		"balance", rec.AmountStaked,
	)

	return rec, nil
}

func (l *Ledger) stake(ctx context.Context, poolID id.PoolID, caller identity.Identity, amount types.Amount) (*stake.Record, int64, error) {
	if amount.IsZero() {
		return nil, 0, ErrInvalidAmount
	}
	if caller.IsNil() {
		return nil, 0, fmt.Errorf("%w: staker must sign", ErrUnauthorized)
	}

	unlock := l.locks.lock(poolID)
	defer unlock()

	p, rec, err := l.load(ctx, poolID, caller)
	if err != nil {
		return nil, 0, err
	}
	prevPool, prevRec := p.Clone(), rec.Clone()

	now := l.clock.Now()
	if rec.IsDormant() {
		rec.StartTime = now
		rec.PoolID = p.ID
	}

	balance, ok := rec.AmountStaked.Add(amount)
	if !ok {
		return nil, 0, fmt.Errorf("%w: stake balance", ErrArithmeticOverflow)
	}
	total, ok := p.TotalStaked.Add(amount)
	if !ok {
		return nil, 0, fmt.Errorf("%w: pool total", ErrArithmeticOverflow)
	}
	rec.AmountStaked = balance
	p.TotalStaked = total

	if err := l.store.CommitStake(ctx, p, rec); err != nil {
		return nil, 0, err
	}

	if err := l.settle(ctx, OpStake, prevPool, prevRec, func() error {
		return l.transfers.Transfer(ctx, transfer.Transfer{
			From:      caller,
			To:        p.Vault(),
			Amount:    amount,
			Authority: caller,
		})
	}); err != nil {
		return nil, 0, err
	}

	return rec, now, nil
}

// Unstake withdraws amount from owner's record back to the caller. The
// caller must be the record's owner.
func (l *Ledger) Unstake(ctx context.Context, poolID id.PoolID, owner, caller identity.Identity, amount types.Amount) (*stake.Record, error) {
	rec, now, err := l.unstake(ctx, poolID, owner, caller, amount)
	if err != nil {
		return nil, l.failed(ctx, OpUnstake, poolID, err)
	}

	l.plugins.EmitUnstaked(ctx, rec.Clone(), amount)
	l.emit(ctx, event.New(event.KindUnstaked, poolID, caller, amount, now))

	l.logger.Debug("unstaked",
		"pool_id", poolID.String(),
		"owner", owner.String(),
		"amount", amount,
		"balance", rec.AmountStaked,
	)

	return rec, nil
}

func (l *Ledger) unstake(ctx context.Context, poolID id.PoolID, owner, caller identity.Identity, amount types.Amount) (*stake.Record, int64, error) {
	if amount.IsZero() {
		return nil, 0, ErrInvalidAmount
	}

	unlock := l.locks.lock(poolID)
	defer unlock()

	p, rec, err := l.load(ctx, poolID, owner)
	if err != nil {
		return nil, 0, err
	}

	if d := guard.Authorize(guard.StakeOwner(rec.Owner), caller); !d.Allowed {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnauthorized, d.Reason)
	}

	prevPool, prevRec := p.Clone(), rec.Clone()

	balance, ok := rec.AmountStaked.Sub(amount)
	if !ok {
		return nil, 0, fmt.Errorf("%w: staked %s, requested %s", ErrInsufficientBalance, rec.AmountStaked, amount)
	}
	total, ok := p.TotalStaked.Sub(amount)
	if !ok {
		// Only reachable if the pool total is already out of step with its records.
		return nil, 0, fmt.Errorf("%w: pool total %s below withdrawal %s", ErrInvariantViolated, p.TotalStaked, amount)
	}
	rec.AmountStaked = balance
	p.TotalStaked = total

	if err := l.store.CommitStake(ctx, p, rec); err != nil {
		return nil, 0, err
	}

	if err := l.settle(ctx, OpUnstake, prevPool, prevRec, func() error {
		return l.transfers.Transfer(ctx, transfer.Transfer{
			From:      p.Vault(),
			To:        caller,
			Amount:    amount,
			Authority: p.Authority(),
		})
	}); err != nil {
		return nil, 0, err
	}

	return rec, l.clock.Now(), nil
}

// ──────────────────────────────────────────────────
// Rewards
// ──────────────────────────────────────────────────

// ClaimRewards mints the caller's accrued reward and records the claim
// time. A zero reward is recorded without calling the mint.
func (l *Ledger) ClaimRewards(ctx context.Context, poolID id.PoolID, caller identity.Identity) (uint64, error) {
	rec, amount, now, err := l.claimRewards(ctx, poolID, caller)
	if err != nil {
		return 0, l.failed(ctx, OpClaimRewards, poolID, err)
	}

	l.plugins.EmitRewardsClaimed(ctx, rec.Clone(), amount)
	l.emit(ctx, event.New(event.KindRewardsClaimed, poolID, caller, types.Amount(amount), now))

	l.logger.Debug("rewards claimed",
		"pool_id", poolID.String(),
		"owner", caller.String(),
		"reward", amount,
	)

	return amount, nil
}

func (l *Ledger) claimRewards(ctx context.Context, poolID id.PoolID, caller identity.Identity) (*stake.Record, uint64, int64, error) {
	if caller.IsNil() {
		return nil, 0, 0, fmt.Errorf("%w: claimant must sign", ErrUnauthorized)
	}

	unlock := l.locks.lock(poolID)
	defer unlock()

	p, rec, err := l.load(ctx, poolID, caller)
	if err != nil {
		return nil, 0, 0, err
	}
	prevPool, prevRec := p.Clone(), rec.Clone()

	now := l.clock.Now()
	amount, err := l.accrued(p, rec, now)
	if err != nil {
		return nil, 0, 0, err
	}
	rec.LastClaimTime = now

	if err := l.store.CommitStake(ctx, p, rec); err != nil {
		return nil, 0, 0, err
	}

	if amount > 0 {
		if err := l.settle(ctx, OpClaimRewards, prevPool, prevRec, func() error {
			return l.transfers.Mint(ctx, transfer.Mint{
				Mint:      p.RewardMint,
				To:        caller,
				Amount:    types.Amount(amount),
				Authority: p.Authority(),
			})
		}); err != nil {
			return nil, 0, 0, err
		}
	}

	return rec, amount, now, nil
}

// PendingReward returns what ClaimRewards would pay owner right now,
// without recording anything.
func (l *Ledger) PendingReward(ctx context.Context, poolID id.PoolID, owner identity.Identity) (uint64, error) {
	unlock := l.locks.rlock(poolID)
	defer unlock()

	p, rec, err := l.load(ctx, poolID, owner)
	if err != nil {
		return 0, err
	}
	return l.accrued(p, rec, l.clock.Now())
}

func (l *Ledger) accrued(p *pool.Pool, rec *stake.Record, now int64) (uint64, error) {
	duration := l.basis.Duration(now, rec.StartTime, rec.LastClaimTime)
	return reward.Calculate(rec.AmountStaked.Uint64(), duration, p.RewardRate, p.TotalStaked.Uint64())
}

// ──────────────────────────────────────────────────
// Audit
// ──────────────────────────────────────────────────

// VerifyPool checks that the pool's total equals the sum of its stake
// records and returns ErrInvariantViolated if it does not.
func (l *Ledger) VerifyPool(ctx context.Context, poolID id.PoolID) error {
	unlock := l.locks.rlock(poolID)
	defer unlock()

	p, err := l.store.GetPool(ctx, poolID)
	if err != nil {
		return err
	}

	const pageSize = 500
	var sum types.Amount
	for offset := 0; ; offset += pageSize {
		recs, err := l.store.ListStakes(ctx, poolID, stake.ListOpts{ActiveOnly: true, Limit: pageSize, Offset: offset})
		if err != nil {
			return err
		}
		for _, r := range recs {
			var ok bool
			if sum, ok = sum.Add(r.AmountStaked); !ok {
				return fmt.Errorf("%w: stake sum overflows", ErrInvariantViolated)
			}
		}
		if len(recs) < pageSize {
			break
		}
	}

	if sum != p.TotalStaked {
		return fmt.Errorf("%w: total %s, records sum to %s", ErrInvariantViolated, p.TotalStaked, sum)
	}
	return nil
}

// Events queries the persisted journal. Events still waiting for the next
// flush are not included. Only operations that committed are journaled.
func (l *Ledger) Events(ctx context.Context, opts event.QueryOpts) ([]*event.Event, error) {
	return l.store.QueryEvents(ctx, opts)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// load reads the pool and owner's record, creating the zeroed record in
// memory if none is stored. Caller holds the pool lock.
func (l *Ledger) load(ctx context.Context, poolID id.PoolID, owner identity.Identity) (*pool.Pool, *stake.Record, error) {
	p, err := l.store.GetPool(ctx, poolID)
	if err != nil {
		return nil, nil, err
	}
	rec, err := l.loadStake(ctx, poolID, owner)
	if err != nil {
		return nil, nil, err
	}
	return p, rec, nil
}

func (l *Ledger) loadStake(ctx context.Context, poolID id.PoolID, owner identity.Identity) (*stake.Record, error) {
	rec, err := l.store.GetStake(ctx, stake.Address(poolID, owner))
	if errors.Is(err, ErrStakeNotFound) {
		return stake.New(poolID, owner), nil
	}
	return rec, err
}

// settle runs the external call of an operation whose ledger changes are
// already committed. If the call fails the pre-image is written back, so
// the operation leaves no trace.
func (l *Ledger) settle(ctx context.Context, op string, prevPool *pool.Pool, prevRec *stake.Record, call func() error) error {
	callErr := call()
	if callErr == nil {
		return nil
	}

	err := fmt.Errorf("%w: %w", ErrTransferFailed, callErr)
	if rbErr := l.store.CommitStake(context.WithoutCancel(ctx), prevPool, prevRec); rbErr != nil {
		l.logger.Error("rollback failed, pool may need repair",
			"op", op,
			"pool_id", prevPool.ID.String(),
			"stake", prevRec.Address.String(),
			"error", rbErr,
		)
		return errors.Join(err, fmt.Errorf("%w: %w", ErrRollbackFailed, rbErr))
	}
	return err
}

func (l *Ledger) failed(ctx context.Context, op string, poolID id.PoolID, err error) error {
	l.plugins.EmitOperationFailed(ctx, op, poolID, err)
	return err
}

package mongo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/stakeledger/event"
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/stake"
	"github.com/xraph/stakeledger/types"
)

// BSON has no unsigned 64-bit integer; amounts and rates are decimal strings.

// ==================== Pool models ====================

type poolModel struct {
	grove.BaseModel `grove:"table:stakeledger_pools"`

	ID          string    `grove:"id,pk"        bson:"_id"`
	RewardRate  string    `grove:"reward_rate"  bson:"reward_rate"`
	TotalStaked string    `grove:"total_staked" bson:"total_staked"`
	Initializer string    `grove:"initializer"  bson:"initializer"`
	RewardMint  string    `grove:"reward_mint"  bson:"reward_mint"`
	CreatedAt   time.Time `grove:"created_at"   bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"   bson:"updated_at"`
}

func toPoolModel(p *pool.Pool) *poolModel {
	return &poolModel{
		ID:          p.ID.String(),
		RewardRate:  strconv.FormatUint(p.RewardRate, 10),
		TotalStaked: p.TotalStaked.String(),
		Initializer: p.Initializer.String(),
		RewardMint:  p.RewardMint.String(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromPoolModel(m *poolModel) (*pool.Pool, error) {
	poolID, err := id.ParsePoolID(m.ID)
	if err != nil {
		return nil, err
	}
	rate, err := strconv.ParseUint(m.RewardRate, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("pool %s: reward_rate: %w", m.ID, err)
	}
	total, err := types.ParseAmount(m.TotalStaked)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", m.ID, err)
	}
	initializer, err := identity.Parse(m.Initializer)
	if err != nil {
		return nil, err
	}
	mint, err := identity.Parse(m.RewardMint)
	if err != nil {
		return nil, err
	}

	return &pool.Pool{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          poolID,
		RewardRate:  rate,
		TotalStaked: total,
		Initializer: initializer,
		RewardMint:  mint,
	}, nil
}

// ==================== Stake models ====================

type stakeModel struct {
	grove.BaseModel `grove:"table:stakeledger_stakes"`

	Address       string    `grove:"address,pk"      bson:"_id"`
	PoolID        string    `grove:"pool_id"         bson:"pool_id"`
	Owner         string    `grove:"owner"           bson:"owner"`
	AmountStaked  string    `grove:"amount_staked"   bson:"amount_staked"`
	StartTime     int64     `grove:"start_time"      bson:"start_time"`
	LastClaimTime int64     `grove:"last_claim_time" bson:"last_claim_time"`
	CreatedAt     time.Time `grove:"created_at"      bson:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"      bson:"updated_at"`
}

func toStakeModel(r *stake.Record) *stakeModel {
	return &stakeModel{
		Address:       r.Address.String(),
		PoolID:        r.PoolID.String(),
		Owner:         r.Owner.String(),
		AmountStaked:  r.AmountStaked.String(),
		StartTime:     r.StartTime,
		LastClaimTime: r.LastClaimTime,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func fromStakeModel(m *stakeModel) (*stake.Record, error) {
	address, err := identity.Parse(m.Address)
	if err != nil {
		return nil, err
	}
	poolID, err := id.ParsePoolID(m.PoolID)
	if err != nil {
		return nil, err
	}
	owner, err := identity.Parse(m.Owner)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.AmountStaked)
	if err != nil {
		return nil, fmt.Errorf("stake %s: %w", m.Address, err)
	}

	return &stake.Record{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Address:       address,
		PoolID:        poolID,
		Owner:         owner,
		AmountStaked:  amount,
		StartTime:     m.StartTime,
		LastClaimTime: m.LastClaimTime,
	}, nil
}

// ==================== Event models ====================

type eventModel struct {
	grove.BaseModel `grove:"table:stakeledger_events"`

	ID         string    `grove:"id,pk"       bson:"_id"`
	Kind       string    `grove:"kind"        bson:"kind"`
	PoolID     string    `grove:"pool_id"     bson:"pool_id"`
	Identity   string    `grove:"identity"    bson:"identity"`
	Amount     string    `grove:"amount"      bson:"amount"`
	RewardRate string    `grove:"reward_rate" bson:"reward_rate"`
	Time       int64     `grove:"time"        bson:"time"`
	CreatedAt  time.Time `grove:"created_at"  bson:"created_at"`
}

func toEventModel(e *event.Event) *eventModel {
	return &eventModel{
		ID:         e.ID.String(),
		Kind:       string(e.Kind),
		PoolID:     e.PoolID.String(),
		Identity:   e.Identity.String(),
		Amount:     e.Amount.String(),
		RewardRate: strconv.FormatUint(e.RewardRate, 10),
		Time:       e.Time,
		CreatedAt:  now(),
	}
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	evtID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}
	poolID, err := id.ParsePoolID(m.PoolID)
	if err != nil {
		return nil, err
	}
	var who identity.Identity
	if err := who.UnmarshalText([]byte(m.Identity)); err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, err
	}
	rate, err := strconv.ParseUint(m.RewardRate, 10, 64)
	if err != nil {
		return nil, err
	}

	return &event.Event{
		ID:         evtID,
		Kind:       event.Kind(m.Kind),
		PoolID:     poolID,
		Identity:   who,
		Amount:     amount,
		RewardRate: rate,
		Time:       m.Time,
	}, nil
}

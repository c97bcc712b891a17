// Package event defines the journal entries the ledger emits after each
// committed operation.
package event

import (
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/types"
)

type Kind string

const (
	KindPoolInitialized    Kind = "pool.initialized"
	KindStaked             Kind = "stake.deposited"
	KindUnstaked           Kind = "stake.withdrawn"
	KindRewardsClaimed     Kind = "rewards.claimed"
	KindRewardRateAdjusted Kind = "reward_rate.adjusted"
)

// Event records who did what to which pool, and when in ledger time.
// Amount is the staked, withdrawn or claimed quantity; RewardRate is set
// for pool.initialized and reward_rate.adjusted.
type Event struct {
	ID         id.EventID        `json:"id"`
	Kind       Kind              `json:"kind"`
	PoolID     id.PoolID         `json:"pool_id"`
	Identity   identity.Identity `json:"identity"`
	Amount     types.Amount      `json:"amount"`
	RewardRate uint64            `json:"reward_rate,omitempty"`
	Time       int64             `json:"time"`
}

// New stamps a fresh event ID.
func New(kind Kind, poolID id.PoolID, who identity.Identity, amount types.Amount, at int64) *Event {
	return &Event{
		ID:       id.NewEventID(),
		Kind:     kind,
		PoolID:   poolID,
		Identity: who,
		Amount:   amount,
		Time:     at,
	}
}

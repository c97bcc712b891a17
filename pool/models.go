// Package pool defines the staking pool record: the reward schedule and the
// running total of everything staked into it.
package pool

import (
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/types"
)

type Pool struct {
	types.Entity
	ID          id.PoolID         `json:"id"`
	RewardRate  uint64            `json:"reward_rate"`
	TotalStaked types.Amount      `json:"total_staked"`
	Initializer identity.Identity `json:"initializer"`
	RewardMint  identity.Identity `json:"reward_mint"`
}

// Authority is the pool's own signing identity. It authorizes transfers out
// of the vault and mints of the reward asset.
func (p *Pool) Authority() identity.Identity {
	return identity.Derive([]byte("authority"), []byte(p.ID.String()))
}

// Vault is the external account holding the pool's staked principal.
func (p *Pool) Vault() identity.Identity {
	return identity.Derive([]byte("vault"), []byte(p.ID.String()))
}

// Clone returns a copy that shares no state with p.
func (p *Pool) Clone() *Pool {
	c := *p
	return &c
}

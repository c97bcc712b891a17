// Package stake defines the per-owner stake record kept for every identity
// that has deposited into a pool.
package stake

import (
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/types"
)

// Record is one owner's position in one pool. Records are never deleted;
// a record whose balance drops to zero stays behind dormant.
type Record struct {
	types.Entity
	Address       identity.Identity `json:"address"`
	PoolID        id.PoolID         `json:"pool_id"`
	Owner         identity.Identity `json:"owner"`
	AmountStaked  types.Amount      `json:"amount_staked"`
	StartTime     int64             `json:"start_time"`
	LastClaimTime int64             `json:"last_claim_time"`
}

// Address returns the deterministic address of the record for (poolID, owner).
func Address(poolID id.PoolID, owner identity.Identity) identity.Identity {
	return identity.Derive([]byte("stake"), []byte(poolID.String()), owner.Bytes())
}

// New returns the zeroed record that Address(poolID, owner) resolves to
// before anything has been staked.
func New(poolID id.PoolID, owner identity.Identity) *Record {
	return &Record{
		Address: Address(poolID, owner),
		PoolID:  poolID,
		Owner:   owner,
	}
}

// IsDormant reports whether the record holds no principal.
func (r *Record) IsDormant() bool {
	return r.AmountStaked.IsZero()
}

// Clone returns a copy that shares no state with r.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

package stake

import (
	"context"

	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/pool"
)

type Store interface {
	GetStake(ctx context.Context, address identity.Identity) (*Record, error)
	ListStakes(ctx context.Context, poolID id.PoolID, opts ListOpts) ([]*Record, error)

	// CommitStake writes r and p.TotalStaked as one atomic unit: either both
	// are visible afterwards or neither is. The record is created if absent.
	CommitStake(ctx context.Context, p *pool.Pool, r *Record) error
}

type ListOpts struct {
	// ActiveOnly skips dormant records.
	ActiveOnly bool
	Limit      int
	Offset     int
}

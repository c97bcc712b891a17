package pool

import (
	"context"

	"github.com/xraph/stakeledger/id"
)

type Store interface {
	CreatePool(ctx context.Context, p *Pool) error
	GetPool(ctx context.Context, poolID id.PoolID) (*Pool, error)
	ListPools(ctx context.Context, opts ListOpts) ([]*Pool, error)
	SetRewardRate(ctx context.Context, poolID id.PoolID, rate uint64) error
}

type ListOpts struct {
	Limit  int
	Offset int
}

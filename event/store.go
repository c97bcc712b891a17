package event

import (
	"context"

	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/identity"
)

type Store interface {
	IngestEvents(ctx context.Context, events []*Event) error
	QueryEvents(ctx context.Context, opts QueryOpts) ([]*Event, error)
	PurgeEvents(ctx context.Context, before int64) (int64, error)
}

// QueryOpts filters the journal. Zero values match everything; Since is
// inclusive and Until exclusive. Results are ordered by Time ascending.
type QueryOpts struct {
	PoolID   id.PoolID
	Identity identity.Identity
	Kind     Kind
	Since    int64
	Until    int64
	Limit    int
	Offset   int
}

// Matches reports whether e passes the filters in opts, ignoring paging.
func (opts QueryOpts) Matches(e *Event) bool {
	if !opts.PoolID.IsNil() && e.PoolID.String() != opts.PoolID.String() {
		return false
	}
	if !opts.Identity.IsNil() && e.Identity != opts.Identity {
		return false
	}
	if opts.Kind != "" && e.Kind != opts.Kind {
		return false
	}
	if opts.Since != 0 && e.Time < opts.Since {
		return false
	}
	if opts.Until != 0 && e.Time >= opts.Until {
		return false
	}
	return true
}

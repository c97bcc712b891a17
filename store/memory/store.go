// Package memory is an in-process store.Store backed by maps. Records are
// copied on the way in and out, so callers never share state with the store.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/xraph/stakeledger"
	"github.com/xraph/stakeledger/event"
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/stake"
	"github.com/xraph/stakeledger/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	pools  map[string]*pool.Pool
	stakes map[identity.Identity]*stake.Record

	events   []*event.Event
	eventIDs map[string]struct{}
}

func New() *Store {
	return &Store{
		pools:    make(map[string]*pool.Pool),
		stakes:   make(map[identity.Identity]*stake.Record),
		eventIDs: make(map[string]struct{}),
	}
}

// Pool Store implementation
func (s *Store) CreatePool(_ context.Context, p *pool.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return stakeledger.ErrStoreClosed
	}
	if _, exists := s.pools[p.ID.String()]; exists {
		return stakeledger.ErrPoolExists
	}
	s.pools[p.ID.String()] = p.Clone()
	return nil
}

func (s *Store) GetPool(_ context.Context, poolID id.PoolID) (*pool.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.pools[poolID.String()]; ok {
		return p.Clone(), nil
	}
	return nil, stakeledger.ErrPoolNotFound
}

func (s *Store) ListPools(_ context.Context, opts pool.ListOpts) ([]*pool.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*pool.Pool, 0, len(s.pools))
	for _, p := range s.pools {
		result = append(result, p.Clone())
	}
	slices.SortFunc(result, func(a, b *pool.Pool) int {
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) SetRewardRate(_ context.Context, poolID id.PoolID, rate uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return stakeledger.ErrStoreClosed
	}
	p, ok := s.pools[poolID.String()]
	if !ok {
		return stakeledger.ErrPoolNotFound
	}
	p.RewardRate = rate
	p.UpdatedAt = now()
	return nil
}

// Stake Store implementation
func (s *Store) GetStake(_ context.Context, address identity.Identity) (*stake.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.stakes[address]; ok {
		return r.Clone(), nil
	}
	return nil, stakeledger.ErrStakeNotFound
}

func (s *Store) ListStakes(_ context.Context, poolID id.PoolID, opts stake.ListOpts) ([]*stake.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*stake.Record, 0)
	for _, r := range s.stakes {
		if r.PoolID.String() != poolID.String() {
			continue
		}
		if opts.ActiveOnly && r.IsDormant() {
			continue
		}
		result = append(result, r.Clone())
	}
	slices.SortFunc(result, func(a, b *stake.Record) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Address.String(), b.Address.String())
	})

	return page(result, opts.Offset, opts.Limit), nil
}

// CommitStake replaces the record and the pool total under one lock.
func (s *Store) CommitStake(_ context.Context, p *pool.Pool, r *stake.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return stakeledger.ErrStoreClosed
	}
	current, ok := s.pools[p.ID.String()]
	if !ok {
		return stakeledger.ErrPoolNotFound
	}

	t := now()
	rec := r.Clone()
	if existing, ok := s.stakes[rec.Address]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else if rec.CreatedAt.IsZero() {
		rec.CreatedAt = t
	}
	rec.UpdatedAt = t

	current.TotalStaked = p.TotalStaked
	current.UpdatedAt = t
	s.stakes[rec.Address] = rec
	return nil
}

// Event Store implementation
func (s *Store) IngestEvents(_ context.Context, events []*event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return stakeledger.ErrStoreClosed
	}
	for _, e := range events {
		key := e.ID.String()
		if _, dup := s.eventIDs[key]; dup {
			continue
		}
		s.eventIDs[key] = struct{}{}
		c := *e
		s.events = append(s.events, &c)
	}
	return nil
}

func (s *Store) QueryEvents(_ context.Context, opts event.QueryOpts) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*event.Event, 0)
	for _, e := range s.events {
		if opts.Matches(e) {
			c := *e
			result = append(result, &c)
		}
	}
	slices.SortStableFunc(result, func(a, b *event.Event) int {
		return cmp.Compare(a.Time, b.Time)
	})

	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) PurgeEvents(_ context.Context, before int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, stakeledger.ErrStoreClosed
	}
	kept := s.events[:0]
	var count int64
	for _, e := range s.events {
		if e.Time < before {
			delete(s.eventIDs, e.ID.String())
			count++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return count, nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return stakeledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	start := max(offset, 0)
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func now() time.Time {
	return time.Now().UTC()
}

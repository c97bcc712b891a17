package stakeledger

import (
	"sync"

	"github.com/xraph/stakeledger/id"
)

// poolLocks hands out one RWMutex per pool. Entries are never removed; a
// ledger serves a bounded set of pools.
type poolLocks struct {
	mu sync.Mutex
	m  map[string]*sync.RWMutex
}

func (k *poolLocks) get(poolID id.PoolID) *sync.RWMutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.m == nil {
		k.m = make(map[string]*sync.RWMutex)
	}
	key := poolID.String()
	l, ok := k.m[key]
	if !ok {
		l = &sync.RWMutex{}
		k.m[key] = l
	}
	return l
}

// lock takes the pool's write lock and returns its release.
func (k *poolLocks) lock(poolID id.PoolID) func() {
	l := k.get(poolID)
	l.Lock()
	return l.Unlock
}

// rlock takes the pool's read lock and returns its release.
func (k *poolLocks) rlock(poolID id.PoolID) func() {
	l := k.get(poolID)
	l.RLock()
	return l.RUnlock
}

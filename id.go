package stakeledger

import "github.com/xraph/stakeledger/id"

// ID is the identifier type for pools and journal events.
type ID = id.ID

// PoolID identifies a staking pool.
type PoolID = id.PoolID

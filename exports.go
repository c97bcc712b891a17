package stakeledger

import (
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/types"
)

// Re-export common types for convenience so users don't have to import the
// types and identity packages.

// Amount is re-exported from types package.
type Amount = types.Amount

// Entity is re-exported from types package.
type Entity = types.Entity

// Identity is re-exported from identity package.
type Identity = identity.Identity

var (
	NewEntity     = types.NewEntity
	ParseIdentity = identity.Parse
)

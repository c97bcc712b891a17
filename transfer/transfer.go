// Package transfer defines the asset transfer service the ledger relies on
// to move staked principal and mint rewards. The service is external to the
// ledger: it owns the real balances, and each call either completes fully or
// fails with no side effects.
package transfer

import (
	"context"

	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/types"
)

// Transfer moves Amount of the staking asset from From to To. Authority
// must be entitled to debit From.
type Transfer struct {
	From      identity.Identity
	To        identity.Identity
	Amount    types.Amount
	Authority identity.Identity
}

// Mint creates Amount of the asset Mint and credits it to To. Authority
// must be the mint's authority.
type Mint struct {
	Mint      identity.Identity
	To        identity.Identity
	Amount    types.Amount
	Authority identity.Identity
}

// Service moves and mints assets.
type Service interface {
	Transfer(ctx context.Context, t Transfer) error
	Mint(ctx context.Context, m Mint) error
}

// Provision describes the accounts a new pool needs: a vault debitable by
// the pool authority, and a reward mint controlled by the same authority.
type Provision struct {
	Vault      identity.Identity
	RewardMint identity.Identity
	Authority  identity.Identity
}

// Provisioner is implemented by services that need to be told about a pool
// before it can move funds. The ledger calls Provision before the pool record
// is created, and the create may still lose to a concurrent initializer of the
// same pool ID. Provision must therefore be idempotent: every account it
// touches is derived from the pool ID, so a repeat call for the same pool
// must succeed and leave the same state.
type Provisioner interface {
	Provision(ctx context.Context, p Provision) error
}

// ServiceFuncs adapts plain functions to Service. A nil func succeeds.
type ServiceFuncs struct {
	TransferFunc func(ctx context.Context, t Transfer) error
	MintFunc     func(ctx context.Context, m Mint) error
}

func (f ServiceFuncs) Transfer(ctx context.Context, t Transfer) error {
	if f.TransferFunc == nil {
		return nil
	}
	return f.TransferFunc(ctx, t)
}

func (f ServiceFuncs) Mint(ctx context.Context, m Mint) error {
	if f.MintFunc == nil {
		return nil
	}
	return f.MintFunc(ctx, m)
}

// Package memory provides an in-process transfer.Service that keeps token
// balances in maps. It is suitable for tests and single-process setups.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/transfer"
	"github.com/xraph/stakeledger/types"
)

var (
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
	ErrWrongAuthority    = errors.New("bank: wrong authority")
	ErrUnknownMint       = errors.New("bank: unknown mint")
	ErrOverflow          = errors.New("bank: balance overflow")
)

// Compile-time checks.
var (
	_ transfer.Service     = (*Bank)(nil)
	_ transfer.Provisioner = (*Bank)(nil)
)

// Bank holds balances of the staking asset plus any number of mintable
// reward assets. By default an account may only be debited by itself;
// provisioning a pool delegates its vault to the pool authority.
type Bank struct {
	mu          sync.Mutex
	balances    map[identity.Identity]types.Amount
	delegates   map[identity.Identity]identity.Identity
	mints       map[identity.Identity]identity.Identity
	minted      map[identity.Identity]map[identity.Identity]types.Amount
	transferLog int
	mintLog     int
}

func New() *Bank {
	return &Bank{
		balances:  make(map[identity.Identity]types.Amount),
		delegates: make(map[identity.Identity]identity.Identity),
		mints:     make(map[identity.Identity]identity.Identity),
		minted:    make(map[identity.Identity]map[identity.Identity]types.Amount),
	}
}

// Deposit credits account with amount of the staking asset out of thin air.
func (b *Bank) Deposit(account identity.Identity, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, ok := b.balances[account].Add(amount)
	if !ok {
		return ErrOverflow
	}
	b.balances[account] = next
	return nil
}

// Balance returns account's staking-asset balance.
func (b *Bank) Balance(account identity.Identity) types.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}

// MintedBalance returns account's balance of the asset minted by mint.
func (b *Bank) MintedBalance(mint, account identity.Identity) types.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.minted[mint][account]
}

// Calls returns how many transfers and mints have succeeded.
func (b *Bank) Calls() (transfers, mints int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transferLog, b.mintLog
}

func (b *Bank) Provision(_ context.Context, p transfer.Provision) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if current, ok := b.mints[p.RewardMint]; ok && current != p.Authority {
		return fmt.Errorf("%w: mint %s is controlled by %s", ErrWrongAuthority, p.RewardMint, current)
	}
	b.mints[p.RewardMint] = p.Authority
	b.delegates[p.Vault] = p.Authority
	return nil
}

func (b *Bank) Transfer(_ context.Context, t transfer.Transfer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.mayDebit(t.From, t.Authority) {
		return fmt.Errorf("%w: %s may not debit %s", ErrWrongAuthority, t.Authority, t.From)
	}

	from, ok := b.balances[t.From].Sub(t.Amount)
	if !ok {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, t.From, b.balances[t.From], t.Amount)
	}
	if t.From == t.To {
		b.transferLog++
		return nil
	}
	to, ok := b.balances[t.To].Add(t.Amount)
	if !ok {
		return ErrOverflow
	}

	b.balances[t.From] = from
	b.balances[t.To] = to
	b.transferLog++
	return nil
}

func (b *Bank) Mint(_ context.Context, m transfer.Mint) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	authority, ok := b.mints[m.Mint]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMint, m.Mint)
	}
	if m.Authority.IsNil() || authority != m.Authority {
		return fmt.Errorf("%w: %s may not mint %s", ErrWrongAuthority, m.Authority, m.Mint)
	}

	holders := b.minted[m.Mint]
	if holders == nil {
		holders = make(map[identity.Identity]types.Amount)
		b.minted[m.Mint] = holders
	}
	next, ok := holders[m.To].Add(m.Amount)
	if !ok {
		return ErrOverflow
	}
	holders[m.To] = next
	b.mintLog++
	return nil
}

func (b *Bank) mayDebit(account, authority identity.Identity) bool {
	if authority.IsNil() {
		return false
	}
	if delegate, ok := b.delegates[account]; ok {
		return delegate == authority
	}
	return account == authority
}

package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/transfer"
	"github.com/xraph/stakeledger/transfer/memory"
	"github.com/xraph/stakeledger/types"
)

var (
	alice     = identity.Derive([]byte("alice"))
	bob       = identity.Derive([]byte("bob"))
	vault     = identity.Derive([]byte("vault"))
	authority = identity.Derive([]byte("authority"))
	mint      = identity.Derive([]byte("mint"))
)

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	require.NoError(t, b.Deposit(alice, 100))

	require.NoError(t, b.Transfer(ctx, transfer.Transfer{From: alice, To: bob, Amount: 40, Authority: alice}))
	assert.Equal(t, types.Amount(60), b.Balance(alice))
	assert.Equal(t, types.Amount(40), b.Balance(bob))

	err := b.Transfer(ctx, transfer.Transfer{From: alice, To: bob, Amount: 61, Authority: alice})
	require.ErrorIs(t, err, memory.ErrInsufficientFunds)
	assert.Equal(t, types.Amount(60), b.Balance(alice), "failed transfer must not move funds")

	err = b.Transfer(ctx, transfer.Transfer{From: alice, To: bob, Amount: 1, Authority: bob})
	require.ErrorIs(t, err, memory.ErrWrongAuthority)

	transfers, mints := b.Calls()
	assert.Equal(t, 1, transfers)
	assert.Equal(t, 0, mints)
}

func TestProvisionDelegatesVault(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	require.NoError(t, b.Provision(ctx, transfer.Provision{Vault: vault, RewardMint: mint, Authority: authority}))
	require.NoError(t, b.Deposit(vault, 10))

	err := b.Transfer(ctx, transfer.Transfer{From: vault, To: alice, Amount: 5, Authority: vault})
	require.ErrorIs(t, err, memory.ErrWrongAuthority)

	require.NoError(t, b.Transfer(ctx, transfer.Transfer{From: vault, To: alice, Amount: 5, Authority: authority}))
	assert.Equal(t, types.Amount(5), b.Balance(alice))

	err = b.Provision(ctx, transfer.Provision{Vault: vault, RewardMint: mint, Authority: bob})
	require.ErrorIs(t, err, memory.ErrWrongAuthority)
}

func TestMint(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	err := b.Mint(ctx, transfer.Mint{Mint: mint, To: alice, Amount: 5, Authority: authority})
	require.ErrorIs(t, err, memory.ErrUnknownMint)

	require.NoError(t, b.Provision(ctx, transfer.Provision{Vault: vault, RewardMint: mint, Authority: authority}))
	require.NoError(t, b.Mint(ctx, transfer.Mint{Mint: mint, To: alice, Amount: 5, Authority: authority}))
	assert.Equal(t, types.Amount(5), b.MintedBalance(mint, alice))

	err = b.Mint(ctx, transfer.Mint{Mint: mint, To: alice, Amount: 5, Authority: alice})
	require.ErrorIs(t, err, memory.ErrWrongAuthority)

	err = b.Mint(ctx, transfer.Mint{Mint: mint, To: alice, Amount: types.MaxAmount, Authority: authority})
	require.ErrorIs(t, err, memory.ErrOverflow)
	assert.Equal(t, types.Amount(5), b.MintedBalance(mint, alice))
}

func TestServiceFuncs(t *testing.T) {
	ctx := context.Background()
	var empty transfer.ServiceFuncs
	require.NoError(t, empty.Transfer(ctx, transfer.Transfer{}))
	require.NoError(t, empty.Mint(ctx, transfer.Mint{}))

	boom := errors.New("boom")
	f := transfer.ServiceFuncs{
		TransferFunc: func(context.Context, transfer.Transfer) error { return boom },
	}
	assert.ErrorIs(t, f.Transfer(ctx, transfer.Transfer{}), boom)
	assert.NoError(t, f.Mint(ctx, transfer.Mint{}))
}

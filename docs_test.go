package stakeledger_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/stakeledger"
	"github.com/xraph/stakeledger/clock"
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/reward"
	"github.com/xraph/stakeledger/store/memory"
	banks "github.com/xraph/stakeledger/transfer/memory"
)

// TestDocumentationExamples walks the Quick Start from the package docs.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()
		admin := identity.Derive([]byte("admin"))
		alice := identity.Derive([]byte("alice"))

		bank := banks.New()
		if err := bank.Deposit(alice, 1000); err != nil {
			t.Fatal(err)
		}

		now := int64(1_700_000_000)
		l := stakeledger.New(memory.New(), bank,
			stakeledger.WithLogger(slog.Default()),
			stakeledger.WithClock(clock.Func(func() int64 { return now })),
			stakeledger.WithRewardBasis(reward.BasisLastClaim),
			stakeledger.WithEventConfig(100, 5*time.Second),
		)
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		p := &pool.Pool{RewardRate: 10, Initializer: admin}
		if err := l.Initialize(ctx, p); err != nil {
			t.Fatal(err)
		}

		if _, err := l.Stake(ctx, p.ID, alice, 100); err != nil {
			t.Fatal(err)
		}

		now += 5
		got, err := l.ClaimRewards(ctx, p.ID, alice)
		if err != nil {
			t.Fatal(err)
		}
		if got != 50 {
			t.Errorf("reward: got %d, want 50", got)
		}

		rec, err := l.Unstake(ctx, p.ID, alice, alice, 40)
		if err != nil {
			t.Fatal(err)
		}
		if rec.AmountStaked != 60 {
			t.Errorf("balance: got %d, want 60", rec.AmountStaked)
		}
		if err := l.VerifyPool(ctx, p.ID); err != nil {
			t.Error(err)
		}
	})
}

func ExampleLedger_ClaimRewards() {
	ctx := context.Background()
	admin := identity.Derive([]byte("admin"))
	alice := identity.Derive([]byte("alice"))

	bank := banks.New()
	_ = bank.Deposit(alice, 100)

	now := int64(1000)
	l := stakeledger.New(memory.New(), bank,
		stakeledger.WithClock(clock.Func(func() int64 { return now })),
		stakeledger.WithLogger(slog.New(slog.DiscardHandler)),
	)

	p := &pool.Pool{RewardRate: 10, Initializer: admin}
	_ = l.Initialize(ctx, p)
	_, _ = l.Stake(ctx, p.ID, alice, 100)

	now += 5
	paid, _ := l.ClaimRewards(ctx, p.ID, alice)
	fmt.Println(paid, bank.MintedBalance(p.RewardMint, alice))
	// Output: 50 50
}

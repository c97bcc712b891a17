// Package stakeledger is an embeddable staking ledger for Go applications.
//
// Depositors stake a fungible asset into a shared pool, accrue rewards in
// proportion to their share of the pool and the time they have been
// staked, withdraw principal and claim rewards. The ledger keeps the books;
// moving the actual assets is delegated to a transfer.Service.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/stakeledger"
//	    "github.com/xraph/stakeledger/pool"
//	    "github.com/xraph/stakeledger/store/memory"
//	    banks "github.com/xraph/stakeledger/transfer/memory"
//	)
//
//	l := stakeledger.New(memory.New(), banks.New())
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	p := &pool.Pool{RewardRate: 10, Initializer: admin}
//	if err := l.Initialize(ctx, p); err != nil {
//	    log.Fatal(err)
//	}
//
//	rec, err := l.Stake(ctx, p.ID, alice, 100)
//	reward, err := l.ClaimRewards(ctx, p.ID, alice)
//	rec, err = l.Unstake(ctx, p.ID, alice, alice, 40)
//
// # Rewards
//
// A claim pays
//
//	floor(amount_staked * reward_rate * duration / total_staked)
//
// where duration is measured in seconds of ledger time from the record's
// start time (reward.BasisStakeStart, the default) or from its last claim
// (reward.BasisLastClaim, see WithRewardBasis). The product is computed in
// 256 bits; an empty pool fails with ErrDivisionByZero and a quotient above
// 64 bits with ErrArithmeticOverflow.
//
// # Consistency
//
// For every pool, TotalStaked equals the sum of AmountStaked over its stake
// records before and after every operation. Each mutating operation holds
// the pool's lock, commits the record and the pool total in one atomic store
// write, then calls the transfer service. If that call fails the previous
// state is written back and ErrTransferFailed is returned. VerifyPool
// audits the invariant.
//
// # Identities
//
// Callers and owners are 32-byte identity.Identity keys rendered in base58.
// Stake record addresses, a pool's vault and its signing authority are
// derived deterministically from seeds, so the same (pool, owner) pair
// always resolves to the same record.
//
// # TypeID
//
// Pools and journal events use TypeIDs:
//
//	pool_01h2xcejqtf2nbrexx3vqjhp41  // Pool ID
//	sevt_01h455vb4pex5vsknk084sn02q  // Event ID
package stakeledger

package plugin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/stakeledger/event"
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/plugin"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/stake"
	"github.com/xraph/stakeledger/types"
)

type recorder struct {
	name string
	mu   sync.Mutex
	seen []string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, s)
}

func (r *recorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func (r *recorder) OnPoolInitialized(_ context.Context, _ *pool.Pool) error {
	r.add("pool")
	return nil
}

func (r *recorder) OnStaked(_ context.Context, _ *stake.Record, _ types.Amount) error {
	r.add("staked")
	return errors.New("ignored")
}

func (r *recorder) OnEvent(_ context.Context, e *event.Event) error {
	r.add(string(e.Kind))
	return nil
}

type slow struct{}

func (slow) Name() string { return "slow" }

func (slow) OnUnstaked(ctx context.Context, _ *stake.Record, _ types.Amount) error {
	time.Sleep(time.Second)
	return nil
}

func TestRegisterAndDispatch(t *testing.T) {
	ctx := context.Background()
	reg := plugin.NewRegistry()
	rec := &recorder{name: "rec"}

	require.NoError(t, reg.Register(rec))
	require.Error(t, reg.Register(&recorder{name: "rec"}), "duplicate names are rejected")
	assert.Equal(t, 1, reg.Count())
	assert.Same(t, rec, reg.Get("rec"))
	assert.Nil(t, reg.Get("missing"))

	poolID := id.NewPoolID()
	reg.EmitPoolInitialized(ctx, &pool.Pool{ID: poolID})
	reg.EmitStaked(ctx, &stake.Record{PoolID: poolID}, 5)
	reg.EmitUnstaked(ctx, &stake.Record{PoolID: poolID}, 5)
	reg.EmitEvent(ctx, &event.Event{Kind: event.KindStaked})

	assert.Equal(t, []string{"pool", "staked", "stake.deposited"}, rec.calls())
}

func TestHookTimeout(t *testing.T) {
	reg := plugin.NewRegistry().WithTimeout(10 * time.Millisecond)
	require.NoError(t, reg.Register(slow{}))

	start := time.Now()
	reg.EmitUnstaked(context.Background(), &stake.Record{}, 1)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestList(t *testing.T) {
	reg := plugin.NewRegistry()
	require.NoError(t, reg.Register(&recorder{name: "a"}))
	require.NoError(t, reg.Register(slow{}))

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name())
	assert.Equal(t, "slow", list[1].Name())
}

package clock_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/stakeledger/clock"
)

func TestFixedAndFunc(t *testing.T) {
	assert.Equal(t, int64(42), clock.Fixed(42).Now())

	var n int64
	c := clock.Func(func() int64 { n++; return n })
	assert.Equal(t, int64(1), c.Now())
	assert.Equal(t, int64(2), c.Now())
}

func TestSystem(t *testing.T) {
	before := time.Now().Unix()
	got := clock.System{}.Now()
	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, time.Now().Unix())
}

func TestNTPSync(t *testing.T) {
	offset := time.Hour
	fail := errors.New("unreachable")
	var calls atomic.Int32

	c := clock.NewNTP("", clock.WithQuery(func(host string) (time.Duration, error) {
		assert.Equal(t, clock.DefaultNTPServer, host)
		if calls.Add(1) > 1 {
			return 0, fail
		}
		return offset, nil
	}))

	assert.Equal(t, time.Duration(0), c.Offset())

	require.NoError(t, c.Sync())
	assert.Equal(t, offset, c.Offset())
	assert.InDelta(t, time.Now().Add(offset).Unix(), c.Now(), 1)

	require.ErrorIs(t, c.Sync(), fail)
	assert.Equal(t, offset, c.Offset(), "failed sync keeps the last offset")
}

func TestNTPRunStopsOnCancel(t *testing.T) {
	var calls atomic.Int32
	c := clock.NewNTP("time.example", clock.WithQuery(func(string) (time.Duration, error) {
		calls.Add(1)
		return time.Second, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

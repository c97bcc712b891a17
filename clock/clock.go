// Package clock supplies ledger time: whole seconds since the Unix epoch.
// Start times, claim times and event times all come from a Clock.
package clock

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/beevik/ntp"
)

// Clock returns the current ledger time in unix seconds.
type Clock interface {
	Now() int64
}

// Func adapts a plain function to Clock.
type Func func() int64

func (f Func) Now() int64 { return f() }

// System reads the host clock.
type System struct{}

func (System) Now() int64 { return time.Now().Unix() }

// Fixed always returns the same instant.
type Fixed int64

func (f Fixed) Now() int64 { return int64(f) }

// DefaultNTPServer is queried when NewNTP is given no host.
const DefaultNTPServer = "pool.ntp.org"

// NTP is the host clock corrected by the offset last measured against an
// NTP server. Until the first successful Sync it behaves like System.
type NTP struct {
	host   string
	offset atomic.Int64
	query  func(host string) (time.Duration, error)
	logger *slog.Logger
}

// NTPOption configures an NTP clock.
type NTPOption func(*NTP)

// WithNTPLogger sets the logger used by Run.
func WithNTPLogger(logger *slog.Logger) NTPOption {
	return func(c *NTP) { c.logger = logger }
}

// WithQuery replaces the NTP round trip, e.g. for tests.
func WithQuery(q func(host string) (time.Duration, error)) NTPOption {
	return func(c *NTP) { c.query = q }
}

func NewNTP(host string, opts ...NTPOption) *NTP {
	if host == "" {
		host = DefaultNTPServer
	}
	c := &NTP{
		host:   host,
		query:  queryOffset,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func queryOffset(host string) (time.Duration, error) {
	resp, err := ntp.Query(host)
	if err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

func (c *NTP) Now() int64 {
	return time.Now().Add(c.Offset()).Unix()
}

// Offset is the correction currently applied to the host clock.
func (c *NTP) Offset() time.Duration {
	return time.Duration(c.offset.Load())
}

// Sync measures the offset once. On failure the previous offset is kept.
func (c *NTP) Sync() error {
	offset, err := c.query(c.host)
	if err != nil {
		return err
	}
	c.offset.Store(int64(offset))
	return nil
}

// Run calls Sync every interval until ctx is done.
func (c *NTP) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := c.Sync(); err != nil {
			c.logger.Debug("failed to access NTP", "host", c.host, "error", err)
		} else {
			c.logger.Debug("clock offset updated", "host", c.host, "offset", c.Offset())
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

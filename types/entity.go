// Package types provides value types shared by the pool, stake and event
// records.
package types

import "time"

// Entity carries the bookkeeping timestamps of a persisted record.
// These are wall-clock times for operators; ledger time (start and claim
// times) comes from the configured clock.Clock instead.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity with current timestamps.
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp to now.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// IsZero reports whether the entity was never persisted.
func (e Entity) IsZero() bool {
	return e.CreatedAt.IsZero()
}

// Age returns how long ago the entity was created.
func (e Entity) Age() time.Duration {
	return time.Since(e.CreatedAt)
}

// IsStale returns true if the entity hasn't been updated in the specified duration.
func (e Entity) IsStale(staleDuration time.Duration) bool {
	return time.Since(e.UpdatedAt) > staleDuration
}

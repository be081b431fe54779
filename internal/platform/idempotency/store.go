// Package idempotency tracks already-processed keys so at-least-once event
// delivery collapses to effectively-once handling.
package idempotency

import (
	"context"
	"time"
)

// DefaultTTL bounds how long processed keys are remembered.
const DefaultTTL = 24 * time.Hour

// Store records processed keys. Reserve returns true exactly once per live
// key: the first caller wins, later callers (replays) get false. Release
// drops a claim whose work failed, so a redelivery can retry it.
type Store interface {
	Reserve(ctx context.Context, key string, now time.Time, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

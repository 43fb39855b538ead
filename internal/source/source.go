// Package source defines the contract activity providers implement and
// shared HTTP helpers for the concrete adapters.
package source

import (
	"context"
	"time"

	"github.com/jrowe/fitdedup/internal/activity"
)

// Source supplies a finite, in-memory list of normalized activities. The
// adapter owns all network I/O, authentication, pagination and rate-limit
// handling; the detector only sees the finished list.
type Source interface {
	// Name identifies the provider ("strava", "stryd").
	Name() string

	// Activities fetches the activities whose start instant falls in
	// [from, to]. A zero from or to leaves that end of the range open
	// where the provider allows it.
	Activities(ctx context.Context, from, to time.Time) ([]activity.Activity, error)

	// ActivityURL returns the provider page where the user can inspect
	// and manually delete the activity.
	ActivityURL(id string) string
}

// Backoff returns the exponential delay before retry attempt n (0-based):
// 1s, 2s, 4s, ...
func Backoff(attempt int) time.Duration {
	return time.Second << attempt
}

// Sleep waits for d or until the context is cancelled, whichever comes
// first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

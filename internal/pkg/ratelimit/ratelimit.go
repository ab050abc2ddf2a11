// Package ratelimit counts attempts per key in fixed windows.
//
// Redis backs the limiter in deployments with more than one replica; Memory
// serves single-process setups and tests.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidWindow is returned when a limiter is built with a non-positive window.
var ErrInvalidWindow = errors.New("ratelimit: window must be positive")

// Limiter decides whether one more attempt under key is allowed at now.
// When it is not, retryAfter says how long until the window resets.
type Limiter interface {
	Allow(ctx context.Context, key string, now time.Time) (allowed bool, retryAfter time.Duration, err error)
}

// Rule is a limit of Limit attempts per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

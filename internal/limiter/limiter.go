// Package limiter throttles failed sign-in attempts per account and source
// address.
package limiter

import (
	"context"
	"crypto/sha256"
	"time"
)

// Policy bundles the throttling knobs.
type Policy struct {
	Window   time.Duration // a failure older than this starts a fresh count
	MaxFails int           // failures inside the window before a lockout
	BlockFor time.Duration // lockout length once the threshold is reached
}

// DefaultPolicy is the production throttle.
var DefaultPolicy = Policy{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}

// Limiter gates sign-in attempts.
type Limiter interface {
	// Allow reports whether an attempt may proceed, with a retry-after when not.
	Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error)
	// Success clears the failure count after a completed sign-in.
	Success(ctx context.Context, email string, ipHash []byte) error
	// Failure counts a bad attempt and reports whether it triggered a lockout.
	Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error)
}

// HashIP hashes a client address so raw IPs are never persisted.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}

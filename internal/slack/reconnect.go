package slack

import (
	"math"
	"time"
)

// ReconnectPolicy defines the backoff for socket redials.
type ReconnectPolicy struct {
	// MaxRetries is the maximum number of redial attempts per outage.
	MaxRetries int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration
	// Multiplier is the factor by which the delay increases.
	Multiplier float64
}

// DefaultReconnectPolicy returns the default backoff policy.
func DefaultReconnectPolicy() *ReconnectPolicy {
	return &ReconnectPolicy{
		MaxRetries:   8,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// NextDelay calculates the delay before the next redial attempt.
// retryCount is 0-indexed (first retry has retryCount=0).
func (p *ReconnectPolicy) NextDelay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}

	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(retryCount))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	return time.Duration(delay)
}

// ShouldRetry returns true if another redial attempt should be made.
func (p *ReconnectPolicy) ShouldRetry(retryCount int) bool {
	return retryCount < p.MaxRetries
}

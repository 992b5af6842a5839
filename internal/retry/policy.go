// Package retry computes the pauses between retries of a transient push failure.
package retry

import (
	"time"

	"git.home.luguber.info/inful/reportpub/internal/config"
)

// rateLimitFactor stretches the pause when the remote reports rate limiting.
const rateLimitFactor = 3

// Policy is an immutable retry schedule.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // retries after the first attempt; 0 disables retrying
}

// DefaultPolicy is the policy for an omitted git.retry section.
func DefaultPolicy() Policy {
	return FromConfig(config.DefaultRetry())
}

// FromConfig builds a policy from the git retry section. Unset fields take
// the defaults.
func FromConfig(rc config.RetryConfig) Policy {
	rc = rc.WithDefaults()
	return NewPolicy(rc.Backoff, rc.InitialDelay.Std(), rc.MaxDelay.Std(), rc.Retries())
}

// NewPolicy builds a policy. An unknown mode means fixed, a negative retry
// count means none, and the initial delay is clamped to max.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	if _, ok := config.ParseBackoff(string(mode)); !ok {
		mode = config.RetryBackoffFixed
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if maxDelay > 0 && initial > maxDelay {
		initial = maxDelay
	}
	return Policy{Mode: mode, Initial: initial, Max: maxDelay, MaxRetries: maxRetries}
}

// Delay returns the pause before retry n (1-based).
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffLinear:
		d = time.Duration(n) * p.Initial
	case config.RetryBackoffExponential:
		d = p.Initial
		for i := 1; i < n && (p.Max <= 0 || d < p.Max); i++ {
			d *= 2
		}
	default:
		d = p.Initial
	}
	return p.clamp(d)
}

// Wait is Delay stretched when the remote rate-limited the previous attempt.
// The stretched pause may exceed Max.
func (p Policy) Wait(n int, rateLimited bool) time.Duration {
	d := p.Delay(n)
	if rateLimited {
		d *= rateLimitFactor
	}
	return d
}

func (p Policy) clamp(d time.Duration) time.Duration {
	if p.Max > 0 && (d > p.Max || d < 0) {
		return p.Max
	}
	return d
}

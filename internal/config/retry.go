package config

import (
	"strings"
	"time"
)

// RetryBackoffMode selects how the delay between push retries grows.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// A push is retried once after a fixed 2s pause unless configured otherwise.
const (
	defaultPushRetries   = 1
	defaultRetryBackoff  = RetryBackoffFixed
	defaultRetryDelay    = 2 * time.Second
	defaultRetryMaxDelay = 30 * time.Second
)

var backoffModes = []RetryBackoffMode{RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential}

// ParseBackoff matches raw case-insensitively against the supported modes.
func ParseBackoff(raw string) (RetryBackoffMode, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, m := range backoffModes {
		if string(m) == raw {
			return m, true
		}
	}
	return "", false
}

func backoffNames() []string {
	names := make([]string, len(backoffModes))
	for i, m := range backoffModes {
		names[i] = string(m)
	}
	return names
}

// RetryConfig controls retries of transient push failures. Auth failures and
// rejected pushes are never retried.
type RetryConfig struct {
	MaxRetries   *int             `yaml:"max_retries,omitempty"`
	Backoff      RetryBackoffMode `yaml:"backoff,omitempty"`
	InitialDelay Duration         `yaml:"initial_delay,omitempty"`
	MaxDelay     Duration         `yaml:"max_delay,omitempty"`
}

// DefaultRetry is the push retry section used when git.retry is omitted.
func DefaultRetry() RetryConfig {
	return RetryConfig{}.WithDefaults()
}

// WithDefaults returns a copy of r with unset fields filled in.
func (r RetryConfig) WithDefaults() RetryConfig {
	r.applyDefaults()
	return r
}

// Retries returns the configured retry count. Zero disables retries.
func (r RetryConfig) Retries() int {
	if r.MaxRetries == nil {
		return defaultPushRetries
	}
	return *r.MaxRetries
}

// applyDefaults fills unset fields. An unknown backoff is left for validation
// to reject.
func (r *RetryConfig) applyDefaults() {
	if r.MaxRetries == nil {
		n := defaultPushRetries
		r.MaxRetries = &n
	}
	if r.Backoff == "" {
		r.Backoff = defaultRetryBackoff
	} else if m, ok := ParseBackoff(string(r.Backoff)); ok {
		r.Backoff = m
	}
	if r.InitialDelay == 0 {
		r.InitialDelay = Duration(defaultRetryDelay)
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = Duration(defaultRetryMaxDelay)
	}
}

package retry

import (
	"testing"
	"time"

	"git.home.luguber.info/inful/reportpub/internal/config"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != config.RetryBackoffFixed {
		t.Fatalf("expected fixed default mode got %s", p.Mode)
	}
	if p.Initial != 2*time.Second {
		t.Fatalf("expected initial 2s got %v", p.Initial)
	}
	if p.MaxRetries != 1 {
		t.Fatalf("expected a single retry got %d", p.MaxRetries)
	}
	if d := p.Delay(1); d != 2*time.Second {
		t.Fatalf("expected first retry after 2s got %v", d)
	}
}

// TestNewPolicyOverrides checks clamping when initial > max and the fallbacks
// for bad input.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffLinear, 5*time.Second, 2*time.Second, 5)
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Mode != config.RetryBackoffLinear || p.MaxRetries != 5 {
		t.Fatalf("unexpected policy %+v", p)
	}

	bad := NewPolicy("bogus", time.Second, time.Second, -2)
	if bad.Mode != config.RetryBackoffFixed {
		t.Fatalf("unknown mode should fall back to fixed, got %s", bad.Mode)
	}
	if bad.MaxRetries != 0 {
		t.Fatalf("negative retries should disable retrying, got %d", bad.MaxRetries)
	}
}

// TestDelayModes ensures fixed, linear, exponential behave and respect cap.
func TestDelayModes(t *testing.T) {
	fixed := NewPolicy(config.RetryBackoffFixed, 100*time.Millisecond, 500*time.Millisecond, 3)
	for i := 1; i <= 3; i++ {
		if d := fixed.Delay(i); d != 100*time.Millisecond {
			t.Fatalf("fixed attempt %d expected 100ms got %v", i, d)
		}
	}

	linear := NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5)
	cases := []struct {
		attempt int
		want    time.Duration
	}{{1, 100 * time.Millisecond}, {2, 200 * time.Millisecond}, {3, 250 * time.Millisecond}, {4, 250 * time.Millisecond}}
	for _, c := range cases {
		if d := linear.Delay(c.attempt); d != c.want {
			t.Fatalf("linear attempt %d expected %v got %v", c.attempt, c.want, d)
		}
	}

	exp := NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 300*time.Millisecond, 5)
	expCases := []struct {
		attempt int
		want    time.Duration
	}{{1, 50 * time.Millisecond}, {2, 100 * time.Millisecond}, {3, 200 * time.Millisecond}, {4, 300 * time.Millisecond}, {60, 300 * time.Millisecond}}
	for _, c := range expCases {
		if d := exp.Delay(c.attempt); d != c.want {
			t.Fatalf("exponential attempt %d expected %v got %v", c.attempt, c.want, d)
		}
	}

	if fixed.Delay(0) != 0 {
		t.Fatalf("attempt 0 must not wait")
	}
}

func TestWaitStretchesRateLimit(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 100*time.Millisecond, 200*time.Millisecond, 1)
	if d := p.Wait(1, false); d != 100*time.Millisecond {
		t.Fatalf("expected 100ms got %v", d)
	}
	if d := p.Wait(1, true); d != 300*time.Millisecond {
		t.Fatalf("expected rate-limited wait 300ms got %v", d)
	}
}

func TestFromConfig(t *testing.T) {
	three := 3
	p := FromConfig(config.RetryConfig{
		MaxRetries:   &three,
		Backoff:      config.RetryBackoffExponential,
		InitialDelay: config.Duration(10 * time.Millisecond),
		MaxDelay:     config.Duration(time.Second),
	})
	if p.MaxRetries != 3 || p.Mode != config.RetryBackoffExponential || p.Initial != 10*time.Millisecond || p.Max != time.Second {
		t.Fatalf("unexpected policy %+v", p)
	}

	zero := 0
	p = FromConfig(config.RetryConfig{MaxRetries: &zero})
	if p.MaxRetries != 0 || p.Initial != 2*time.Second || p.Mode != config.RetryBackoffFixed {
		t.Fatalf("unset fields should take defaults, got %+v", p)
	}
}

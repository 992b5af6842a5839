package git

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/logfields"
)

// State is the observed local and remote tip.
type State struct {
	LocalTip  string
	RemoteTip string
}

// Match reports HEAD parity.
func (s State) Match() bool {
	return s.LocalTip != "" && s.LocalTip == s.RemoteTip
}

// ParityVerifier compares the local tip with the remote branch tip.
// A mismatch is reported, never remediated.
type ParityVerifier struct {
	client  *Client
	timeout time.Duration
}

// NewParityVerifier creates a verifier; timeout bounds the remote listing.
func NewParityVerifier(client *Client, timeout time.Duration) *ParityVerifier {
	return &ParityVerifier{client: client, timeout: timeout}
}

// Verify reads both tips. The State is returned even on mismatch.
func (v *ParityVerifier) Verify(ctx context.Context) (State, error) {
	local, err := v.client.LocalTip()
	if err != nil {
		return State{}, err
	}
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	remote, err := v.client.RemoteTip(ctx)
	if err != nil {
		return State{LocalTip: local}, err
	}

	st := State{LocalTip: local, RemoteTip: remote}
	if !st.Match() {
		return st, errors.ParityError("local and remote tips differ").
			WithContext("local", local).
			WithContext("remote", remote).
			WithContext("branch", v.client.branch).
			Build()
	}
	slog.Info("HEAD parity verified", logfields.Commit(local), logfields.Branch(v.client.branch))
	return st, nil
}

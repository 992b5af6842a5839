// Package notify announces succeeded publish runs on NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/reportpub/internal/config"
)

// Event is the JSON payload published for a succeeded run.
type Event struct {
	RunID     string    `json:"run_id"`
	Strategy  string    `json:"strategy"`
	Mode      string    `json:"mode"`
	Artifact  string    `json:"artifact,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	Pushed    bool      `json:"pushed"`
	SiteURL   string    `json:"site_url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NATSNotifier publishes events on a core NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewNATSNotifier connects to cfg.NATSURL.
func NewNATSNotifier(cfg config.NotifyConfig) (*NATSNotifier, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("notifications are disabled")
	}
	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("reportpub"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(2))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Debug("NATS notifier connected", "url", cfg.NATSURL, "subject", cfg.Subject)
	return &NATSNotifier{conn: conn, subject: cfg.Subject}, nil
}

// Published sends ev and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Published(ctx context.Context, ev Event) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	return nil
}

// Close closes the connection. Events are already flushed by Published.
func (n *NATSNotifier) Close() {
	if n != nil && n.conn != nil {
		n.conn.Close()
	}
}

// Encode renders ev as JSON.
func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/reportpub/internal/config"
)

func TestEncode(t *testing.T) {
	ts := time.Date(2026, 2, 14, 10, 5, 0, 0, time.UTC)
	data, err := Encode(Event{RunID: "r1", Strategy: "beta", Mode: "capital", Pushed: true, Timestamp: ts})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "r1", decoded["run_id"])
	assert.Equal(t, true, decoded["pushed"])
	assert.Equal(t, "2026-02-14T10:05:00Z", decoded["timestamp"])
	assert.NotContains(t, decoded, "artifact")
}

func TestNewNATSNotifier_Errors(t *testing.T) {
	_, err := NewNATSNotifier(config.NotifyConfig{Enabled: false})
	require.Error(t, err)

	_, err = NewNATSNotifier(config.NotifyConfig{Enabled: true, NATSURL: "nats://127.0.0.1:1", Subject: "x"})
	require.Error(t, err)
}

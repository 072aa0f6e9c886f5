package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/magefree/mage-match-engine/internal/game/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.WebSocket.Address)
	assert.Equal(t, "/ws", cfg.Server.WebSocket.Path)
	assert.Equal(t, 256, cfg.Server.WebSocket.SendQueueSize)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, SourceYAML, cfg.Catalog.Source)
	assert.Equal(t, int64(0), cfg.Engine.Seed)

	format, err := cfg.Format.Resolve()
	require.NoError(t, err)
	assert.Equal(t, deck.Standard, format)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  websocket:
    address: "127.0.0.1:9000"
    send_queue_size: 16
logging:
  level: debug
  format: json
catalog:
  source: postgres
database:
  url: postgres://localhost/cards
  max_conns: 4
format:
  name: limited
  opening_hand_size: 6
  skip_first_draw: true
engine:
  seed: 1234
  replays: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.WebSocket.Address)
	assert.Equal(t, 16, cfg.Server.WebSocket.SendQueueSize)
	assert.Equal(t, "/ws", cfg.Server.WebSocket.Path)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, SourcePostgres, cfg.Catalog.Source)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, int64(1234), cfg.Engine.Seed)
	assert.False(t, cfg.Engine.Replays)

	format, err := cfg.Format.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "limited", format.Name)
	assert.Equal(t, 40, format.MinDeckSize)
	assert.Equal(t, 6, format.OpeningHandSize)
	assert.True(t, format.SkipFirstDraw)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MATCH_DATABASE_URL", "postgres://env-host/mage")
	t.Setenv("MATCH_LOGGING_LEVEL", "warn")
	t.Setenv("MATCH_ENGINE_SEED", "99")

	path := writeConfig(t, "logging:\n  level: debug\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-host/mage", cfg.Database.URL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, int64(99), cfg.Engine.Seed)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
		{"bad format", "logging:\n  format: xml\n", "logging.format"},
		{"bad source", "catalog:\n  source: csv\n", "catalog.source"},
		{"unknown preset", "format:\n  name: vintage\n", "unknown format"},
		{"hand larger than deck", "format:\n  min_deck_size: 5\n", "opening hand"},
		{"relative path", "server:\n  websocket:\n    path: ws\n", "server.websocket.path"},
		{"pool bounds", "catalog:\n  source: postgres\ndatabase:\n  min_conns: 20\n  max_conns: 2\n", "pool bounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Logging.Level = "loud"
	cfg.Catalog.Source = "csv"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "catalog.source")
}

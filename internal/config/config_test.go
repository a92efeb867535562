package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

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
	path := writeConfig(t, "server:\n  address: \":9000\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 5, cfg.Game.BoardCols)
	assert.Equal(t, 7, cfg.Game.BoardRows)
	assert.Equal(t, 60*time.Second, cfg.Game.TurnTimeout)
	assert.Equal(t, 4, cfg.Game.HandInit)
	assert.Equal(t, 7, cfg.Game.MaxHand)
	assert.Equal(t, 20, cfg.Game.DeckSize)
	assert.Equal(t, 1.0, cfg.Game.UnitRatio)
	assert.Equal(t, "random", cfg.Game.PlayerOrder)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":7000"
game:
  board_cols: 4
  board_rows: 5
  turn_timeout: 30s
  hand_init: 2
  max_hand: 5
  deck_size: 15
  unit_ratio: 0.8
  player_order: iteration
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Game.BoardCols)
	assert.Equal(t, 30*time.Second, cfg.Game.TurnTimeout)
	assert.Equal(t, 0.8, cfg.Game.UnitRatio)
	assert.Equal(t, "iteration", cfg.Game.PlayerOrder)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"cols out of range", "game:\n  board_cols: 2\n"},
		{"rows out of range", "game:\n  board_rows: 10\n"},
		{"zero timeout", "game:\n  turn_timeout: 0s\n"},
		{"negative hand", "game:\n  hand_init: -1\n"},
		{"cap below hand", "game:\n  hand_init: 4\n  max_hand: 2\n"},
		{"deck too small", "game:\n  deck_size: 3\n"},
		{"ratio out of range", "game:\n  unit_ratio: 2\n"},
		{"unknown order", "game:\n  player_order: clockwise\n"},
		{"db enabled without url", "database:\n  enabled: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

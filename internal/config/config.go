// Package config loads and validates the server configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the card battle server.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Data     DataConfig     `mapstructure:"data"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig covers the WebSocket lobby listener.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GameConfig carries the per-match rule parameters.
type GameConfig struct {
	BoardCols   int           `mapstructure:"board_cols"`
	BoardRows   int           `mapstructure:"board_rows"`
	TurnTimeout time.Duration `mapstructure:"turn_timeout"`
	HandInit    int           `mapstructure:"hand_init"`
	MaxHand     int           `mapstructure:"max_hand"`
	DeckSize    int           `mapstructure:"deck_size"`
	UnitRatio   float64       `mapstructure:"unit_ratio"`
	PlayerOrder string        `mapstructure:"player_order"`
}

// DataConfig points at the static prototype files.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// DatabaseConfig covers the optional match result store. With Enabled false
// results are kept in memory only.
type DatabaseConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// AuthConfig covers lobby access control. An empty AccessKeyHash disables
// the check.
type AuthConfig struct {
	AccessKeyHash string `mapstructure:"access_key_hash"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration file at path, applies defaults and
// environment overrides (WILDWAR_ prefix), and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("WILDWAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8765")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("game.board_cols", 5)
	v.SetDefault("game.board_rows", 7)
	v.SetDefault("game.turn_timeout", 60*time.Second)
	v.SetDefault("game.hand_init", 4)
	v.SetDefault("game.max_hand", 7)
	v.SetDefault("game.deck_size", 20)
	v.SetDefault("game.unit_ratio", 1.0)
	v.SetDefault("game.player_order", "random")

	v.SetDefault("data.dir", "data")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks the cross-field constraints that viper cannot express.
// Game rule bounds are re-checked by the dealer; this catches them at
// startup instead of at the first match.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("config: server.address must not be empty")
	}
	if c.Game.BoardCols < 3 || c.Game.BoardCols > 9 {
		return fmt.Errorf("config: game.board_cols %d out of range [3, 9]", c.Game.BoardCols)
	}
	if c.Game.BoardRows < 4 || c.Game.BoardRows > 9 {
		return fmt.Errorf("config: game.board_rows %d out of range [4, 9]", c.Game.BoardRows)
	}
	if c.Game.TurnTimeout <= 0 {
		return fmt.Errorf("config: game.turn_timeout must be positive, got %v", c.Game.TurnTimeout)
	}
	if c.Game.HandInit < 0 {
		return fmt.Errorf("config: game.hand_init must not be negative, got %d", c.Game.HandInit)
	}
	if c.Game.MaxHand < c.Game.HandInit {
		return fmt.Errorf("config: game.max_hand %d below game.hand_init %d", c.Game.MaxHand, c.Game.HandInit)
	}
	if c.Game.DeckSize < c.Game.HandInit+1 {
		return fmt.Errorf("config: game.deck_size %d too small for game.hand_init %d", c.Game.DeckSize, c.Game.HandInit)
	}
	if c.Game.UnitRatio < 0 || c.Game.UnitRatio > 1 {
		return fmt.Errorf("config: game.unit_ratio %v out of range [0, 1]", c.Game.UnitRatio)
	}
	switch c.Game.PlayerOrder {
	case "iteration", "random":
	default:
		return fmt.Errorf("config: unknown game.player_order %q", c.Game.PlayerOrder)
	}
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("config: database.url required when database.enabled is true")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("config: data.dir must not be empty")
	}
	return nil
}

// Package config loads the example server's knobs (port, event log path,
// sync mode, buffer size, wait strategy, symbols, and the order size and
// value risk limits) via viper. It carries no producer mode or worker count.
// Load can watch the config file through fsnotify and hand each reloaded
// Config to a caller-supplied callback; nothing is re-applied on its own.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rishavpaul/disruptor/internal/risk"
	"github.com/rishavpaul/disruptor/wait"
)

// Config is the server's tunable configuration surface.
type Config struct {
	Port          int      `mapstructure:"port"`
	EventLogPath  string   `mapstructure:"event_log_path"`
	SyncMode      bool     `mapstructure:"sync_mode"`
	BufferSize    int64    `mapstructure:"buffer_size"`
	WaitStrategy  string   `mapstructure:"wait_strategy"` // "busy_spin" | "yielding"
	Symbols       []string `mapstructure:"symbols"`
	MaxOrderSize  int64    `mapstructure:"max_order_size"`
	MaxOrderValue int64    `mapstructure:"max_order_value"`
}

// Default returns the configuration the server falls back to when no
// config file or environment variables override it.
func Default() Config {
	return Config{
		Port:          8080,
		EventLogPath:  "events.log",
		SyncMode:      false,
		BufferSize:    16384,
		WaitStrategy:  "yielding",
		Symbols:       []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA"},
		MaxOrderSize:  risk.DefaultConfig().MaxOrderSize,
		MaxOrderValue: risk.DefaultConfig().MaxOrderValue,
	}
}

// Strategy resolves the configured wait strategy name to a wait.Strategy.
// Unrecognized names fall back to Yielding.
func (c Config) Strategy() wait.Strategy {
	switch strings.ToLower(c.WaitStrategy) {
	case "busy_spin", "busyspin":
		return wait.BusySpin{}
	default:
		return wait.Yielding{}
	}
}

// RiskConfig derives a risk.Config from the fields this package owns,
// layered onto risk.DefaultConfig for anything it doesn't.
func (c Config) RiskConfig() risk.Config {
	cfg := risk.DefaultConfig()
	if c.MaxOrderSize > 0 {
		cfg.MaxOrderSize = c.MaxOrderSize
	}
	if c.MaxOrderValue > 0 {
		cfg.MaxOrderValue = c.MaxOrderValue
	}
	return cfg
}

// Load reads configuration from the compiled-in defaults, the file at path
// (if non-empty), and environment variables prefixed DISRUPTOR_; the file
// overrides the defaults and the environment overrides both. If path and
// onChange are both non-empty, onChange is invoked with the reloaded Config
// whenever the underlying file changes.
func Load(path string, logger *zap.Logger, onChange func(Config)) (Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("port", def.Port)
	v.SetDefault("event_log_path", def.EventLogPath)
	v.SetDefault("sync_mode", def.SyncMode)
	v.SetDefault("buffer_size", def.BufferSize)
	v.SetDefault("wait_strategy", def.WaitStrategy)
	v.SetDefault("symbols", def.Symbols)
	v.SetDefault("max_order_size", def.MaxOrderSize)
	v.SetDefault("max_order_value", def.MaxOrderValue)

	v.SetEnvPrefix("disruptor")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if path != "" && onChange != nil {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var reloaded Config
			if err := v.Unmarshal(&reloaded); err != nil {
				if logger != nil {
					logger.Warn("config reload failed", zap.Error(err))
				}
				return
			}
			onChange(reloaded)
		})
	}

	return cfg, nil
}

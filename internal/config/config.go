// Package config loads the layered YAML/env settings that configure a
// pager+tree instance: the page slot count a fresh file is created with,
// the backing data file path, and the logging level.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Pager holds pager/tree creation settings.
type Pager struct {
	Slots    int    `mapstructure:"slots"`
	DataFile string `mapstructure:"data_file"`
}

// Log holds logging settings.
type Log struct {
	Level string `mapstructure:"level"`
}

// Config is the top-level settings document, matching the layout
// documented in SPEC_FULL.md §4.3.
type Config struct {
	Pager Pager `mapstructure:"pager"`
	Log   Log   `mapstructure:"log"`

	v *viper.Viper
}

func defaults(v *viper.Viper) {
	v.SetDefault("pager.slots", 40)
	v.SetDefault("pager.data_file", "bpt.dat")
	v.SetDefault("log.level", "info")
}

// Load reads path (if it exists) as a YAML document, falling back to
// built-in defaults for anything unset, and allows BPTREEIDX_-prefixed
// environment variables to override any key (e.g. BPTREEIDX_LOG_LEVEL).
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("bptreeidx")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.Pager.Slots < 4 || cfg.Pager.Slots%2 != 0 {
		return nil, fmt.Errorf("config: pager.slots must be even and >= 4, got %d", cfg.Pager.Slots)
	}
	cfg.v = v
	slog.Debug("config.Load", "path", path, "slots", cfg.Pager.Slots, "dataFile", cfg.Pager.DataFile, "logLevel", cfg.Log.Level)
	return &cfg, nil
}

// Watch registers onChange to fire whenever the backing config file is
// rewritten on disk, the way a running server can pick up a new log
// level without a restart. It is a no-op if Load was never given a file
// path. Never rewires pager.slots at runtime — that value is pinned to
// whatever the backing data file was created with (SPEC_FULL.md §4.3).
func (c *Config) Watch(onChange func(*Config)) {
	if c.v == nil {
		return
	}
	c.v.OnConfigChange(func(_ fsnotify.Event) {
		var updated Config
		if err := c.v.Unmarshal(&updated); err != nil {
			slog.Error("config.Watch.unmarshal", "error", err)
			return
		}
		updated.Pager.Slots = c.Pager.Slots // slots never hot-reload
		updated.v = c.v
		slog.Info("config.Watch.reload", "logLevel", updated.Log.Level)
		onChange(&updated)
	})
	c.v.WatchConfig()
}

// ParseLevel translates the configured textual log level into a slog.Level.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

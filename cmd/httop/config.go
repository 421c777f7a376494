package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/httop/internal/model"
)

const (
	displayPlain     = "plain"
	displayDashboard = "dashboard"

	defaultMuxBufferSize = DefaultMuxBuffer
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Delay         int    `mapstructure:"delay"`   // seconds
	Entries       int    `mapstructure:"entries"` // rows shown
	Window        int    `mapstructure:"window"`  // seconds
	LogFormat     string `mapstructure:"log-format"`
	CustomPattern string `mapstructure:"custom-pattern"`
	Display       string `mapstructure:"display"`
	Skin          string `mapstructure:"skin"`
	MuxBufferSize int    `mapstructure:"mux-buffer-size"`
	LogFile       string `mapstructure:"log-file"`
	APIAddr       string `mapstructure:"api-addr"` // empty disables the HTTP API

	Files      []string `mapstructure:"-"` // positional arguments
	ConfigPath string   `mapstructure:"-"` // not from config file
	ConfigDir  string   `mapstructure:"-"`
}

func (c appConfig) delay() time.Duration  { return time.Duration(c.Delay) * time.Second }
func (c appConfig) window() time.Duration { return time.Duration(c.Window) * time.Second }

// loadConfig layers defaults, the config file, HTTOP_* environment variables
// and finally overrides (explicitly set flags, keyed by config key).
func loadConfig(configPath string, overrides map[string]any) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}
	configDir := filepath.Join(home, ".config", "httop")

	v := viper.New()
	v.SetEnvPrefix("HTTOP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("delay", int(model.DefaultDelay/time.Second))
	v.SetDefault("entries", model.DefaultEntries)
	v.SetDefault("window", int(model.DefaultWindow/time.Second))
	v.SetDefault("log-format", model.DefaultLogFormat)
	v.SetDefault("custom-pattern", "")
	v.SetDefault("display", model.DefaultDisplay)
	v.SetDefault("skin", model.DefaultSkin)
	v.SetDefault("mux-buffer-size", defaultMuxBufferSize)
	v.SetDefault("log-file", "")
	v.SetDefault("api-addr", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		configDir = filepath.Dir(configPath)
	} else {
		v.SetConfigFile(filepath.Join(configDir, "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		// Only the default config file is optional.
		var configFileNotFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &configFileNotFound) || os.IsNotExist(err)
		if !missing || configPath != "" {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	cfg.ConfigDir = configDir

	cfg.LogFormat = strings.TrimSpace(cfg.LogFormat)
	cfg.Display = strings.ToLower(strings.TrimSpace(cfg.Display))
	cfg.APIAddr = strings.TrimSpace(cfg.APIAddr)
	if strings.HasPrefix(cfg.LogFile, "~/") {
		cfg.LogFile = filepath.Join(home, cfg.LogFile[2:])
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c appConfig) validate() error {
	if c.Delay < 1 {
		return fmt.Errorf("invalid delay: %d (must be at least 1 second)", c.Delay)
	}
	if c.Entries < 1 {
		return fmt.Errorf("invalid entries: %d (must be at least 1)", c.Entries)
	}
	if c.Window < 1 {
		return fmt.Errorf("invalid window: %d (must be at least 1 second)", c.Window)
	}
	switch c.Display {
	case displayPlain, displayDashboard:
	default:
		return fmt.Errorf("invalid display: %q (want %s or %s)", c.Display, displayPlain, displayDashboard)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables that override file values.
const (
	EnvStore         = "ROOMTALLY_STORE"
	EnvDBPath        = "ROOMTALLY_DB"
	EnvRedisAddr     = "ROOMTALLY_REDIS_ADDR"
	EnvRedisPassword = "ROOMTALLY_REDIS_PASSWORD"
	EnvRedisDB       = "ROOMTALLY_REDIS_DB"
	EnvCurrency      = "ROOMTALLY_CURRENCY"
	EnvLogLevel      = "ROOMTALLY_LOG_LEVEL"
)

// Config holds all roomtally configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Store      StoreConfig      `toml:"store"`
	Appearance AppearanceConfig `toml:"appearance"`
	Daemon     DaemonConfig     `toml:"daemon"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Currency  string `toml:"currency"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// StoreConfig selects where rooms, budgets and history live.
type StoreConfig struct {
	Backend       string `toml:"backend"` // sqlite, redis or memory
	Path          string `toml:"path,omitempty"`
	RedisAddr     string `toml:"redis_addr,omitempty"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DaemonConfig holds defaults for `roomtally daemon`.
type DaemonConfig struct {
	Addr        string `toml:"addr"`
	IntervalSec int    `toml:"interval_sec"`
}

// Interval returns the daemon poll interval.
func (d DaemonConfig) Interval() time.Duration {
	return time.Duration(d.IntervalSec) * time.Second
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Currency:  "MVR",
			LogLevel:  "warn",
			LogFormat: "console",
		},
		Store: StoreConfig{
			Backend:     "sqlite",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "roomtally:",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Daemon: DaemonConfig{
			Addr:        "127.0.0.1:8788",
			IntervalSec: 10,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "roomtally")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "roomtally")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "roomtally")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "roomtally")
}

// DefaultDBPath is where the SQLite store lives unless configured.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "roomtally.db")
}

// Load reads the config file, returning defaults if it doesn't exist, then
// applies environment overrides.
func Load() (Config, error) {
	cfg, err := LoadFile(Path())
	if err != nil {
		return cfg, err
	}
	return ApplyEnv(cfg), nil
}

// LoadFile reads the config at path over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // config path is chosen by the local user
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays ROOMTALLY_* environment variables onto cfg.
func ApplyEnv(cfg Config) Config {
	if v := os.Getenv(EnvStore); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		cfg.Store.RedisPassword = v
	}
	if v := os.Getenv(EnvRedisDB); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Store.RedisDB = n
		}
	}
	if v := os.Getenv(EnvCurrency); v != "" {
		cfg.General.Currency = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.General.LogLevel = v
	}
	return cfg
}

// DBPath returns the configured SQLite path or the default.
func (c Config) DBPath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return DefaultDBPath()
}

// Validate reports every problem with cfg at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case "sqlite", "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for the redis backend"))
		}
		if c.Store.RedisDB < 0 {
			errs = append(errs, fmt.Errorf("store.redis_db must be >= 0, got %d", c.Store.RedisDB))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be sqlite, redis or memory, got %q", c.Store.Backend))
	}
	if strings.TrimSpace(c.General.Currency) == "" {
		errs = append(errs, errors.New("general.currency must not be empty"))
	}
	switch c.General.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("general.log_level must be debug, info, warn or error, got %q", c.General.LogLevel))
	}
	if c.Daemon.IntervalSec < 2 {
		errs = append(errs, fmt.Errorf("daemon.interval_sec must be at least 2, got %d", c.Daemon.IntervalSec))
	}
	return errors.Join(errs...)
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile writes cfg to path with owner-only permissions.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // config path is chosen by the local user
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

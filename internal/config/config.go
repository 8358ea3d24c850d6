package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when TRADELAB_CONFIG is unset.
const DefaultPath = "config/tradelab.yaml"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for tradelab.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Server   Server   `yaml:"server"`
	Alpaca   Alpaca   `yaml:"alpaca"`
	Logging  Logging  `yaml:"logging"`
	Backtest Backtest `yaml:"backtest"`
	Sync     Sync     `yaml:"sync"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
	Feed      string `yaml:"feed"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Backtest holds engine parameters.
type Backtest struct {
	InitialCapital float64 `yaml:"initial_capital"`
	MinBars        int     `yaml:"min_bars"`
	PreviewLength  int     `yaml:"preview_length"`
}

// Sync controls the bar cache refresh job.
type Sync struct {
	Tickers         []string `yaml:"tickers"`
	Lookback        string   `yaml:"lookback"`
	MaxWorkers      int      `yaml:"max_workers"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	Retries         int      `yaml:"retries"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Path returns the config file location: TRADELAB_CONFIG if set, otherwise
// DefaultPath.
func Path() string {
	if v := os.Getenv("TRADELAB_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	return cfg, nil
}

// Default returns a Config with defaults and environment overrides applied,
// for running without a config file.
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	cfg.applyDefaults()
	return cfg
}

// Validate reports settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if !(c.Backtest.InitialCapital > 0) {
		errs = append(errs, fmt.Errorf("backtest.initial_capital must be positive, got %v", c.Backtest.InitialCapital))
	}
	if c.Backtest.MinBars < 2 {
		errs = append(errs, fmt.Errorf("backtest.min_bars must be at least 2, got %d", c.Backtest.MinBars))
	}
	if c.Sync.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("sync.max_workers must be at least 1, got %d", c.Sync.MaxWorkers))
	}
	return errors.Join(errs...)
}

func (c *Config) applyDefaults() {
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/tradelab.db"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = 9090
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Backtest.InitialCapital == 0 {
		c.Backtest.InitialCapital = 10000
	}
	if c.Backtest.MinBars == 0 {
		c.Backtest.MinBars = 30
	}
	if c.Backtest.PreviewLength == 0 {
		c.Backtest.PreviewLength = 100
	}
	if c.Sync.Lookback == "" {
		c.Sync.Lookback = "5y"
	}
	if c.Sync.MaxWorkers == 0 {
		c.Sync.MaxWorkers = 4
	}
	if c.Sync.RateLimitPerMin == 0 {
		c.Sync.RateLimitPerMin = 200
	}
	if c.Sync.Retries == 0 {
		c.Sync.Retries = 3
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("TRADELAB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}

	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("ALPACA_FEED"); v != "" {
		cfg.Alpaca.Feed = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Standard Alpaca env vars (highest priority, canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

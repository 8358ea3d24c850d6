package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tradelab.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATA_DIR", "SQLITE_PATH", "TRADELAB_PORT", "ALPACA_API_KEY", "ALPACA_API_SECRET",
		"ALPACA_DATA_URL", "ALPACA_FEED", "LOG_LEVEL", "LOG_FORMAT", "APCA_API_KEY_ID",
		"APCA_API_SECRET_KEY", "TRADELAB_CONFIG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/tradelab/data"
  sqlite_path: "/tmp/tradelab/tradelab.db"
server:
  host: "0.0.0.0"
  port: 8081
  grpc_port: 9091
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  data_url: "https://data.alpaca.markets"
  feed: "sip"
logging:
  level: "debug"
  format: "text"
backtest:
  initial_capital: 25000
  min_bars: 40
  preview_length: 50
sync:
  tickers: ["SPY", "QQQ"]
  lookback: "2y"
  max_workers: 8
  rate_limit_per_min: 100
  retries: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Storage --
	if cfg.Storage.DataDir != "/tmp/tradelab/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/tradelab/data")
	}
	if cfg.Storage.SQLitePath != "/tmp/tradelab/tradelab.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/tradelab/tradelab.db")
	}

	// -- Server --
	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8081)
	}
	if cfg.Server.GRPCPort != 9091 {
		t.Errorf("Server.GRPCPort = %d, want %d", cfg.Server.GRPCPort, 9091)
	}

	// -- Alpaca --
	if cfg.Alpaca.APIKey != "test-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "test-key")
	}
	if cfg.Alpaca.Feed != "sip" {
		t.Errorf("Alpaca.Feed = %q, want %q", cfg.Alpaca.Feed, "sip")
	}

	// -- Logging --
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want debug/text", cfg.Logging)
	}

	// -- Backtest --
	if cfg.Backtest.InitialCapital != 25000 {
		t.Errorf("Backtest.InitialCapital = %v, want 25000", cfg.Backtest.InitialCapital)
	}
	if cfg.Backtest.MinBars != 40 {
		t.Errorf("Backtest.MinBars = %d, want 40", cfg.Backtest.MinBars)
	}
	if cfg.Backtest.PreviewLength != 50 {
		t.Errorf("Backtest.PreviewLength = %d, want 50", cfg.Backtest.PreviewLength)
	}

	// -- Sync --
	if strings.Join(cfg.Sync.Tickers, ",") != "SPY,QQQ" {
		t.Errorf("Sync.Tickers = %v", cfg.Sync.Tickers)
	}
	if cfg.Sync.Lookback != "2y" || cfg.Sync.MaxWorkers != 8 || cfg.Sync.RateLimitPerMin != 100 || cfg.Sync.Retries != 5 {
		t.Errorf("Sync = %+v", cfg.Sync)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != 8080 || cfg.Server.GRPCPort != 9090 {
		t.Errorf("Server = %+v, want ports 8080/9090", cfg.Server)
	}
	if cfg.Backtest.InitialCapital != 10000 {
		t.Errorf("Backtest.InitialCapital = %v, want 10000", cfg.Backtest.InitialCapital)
	}
	if cfg.Backtest.MinBars != 30 {
		t.Errorf("Backtest.MinBars = %d, want 30", cfg.Backtest.MinBars)
	}
	if cfg.Backtest.PreviewLength != 100 {
		t.Errorf("Backtest.PreviewLength = %d, want 100", cfg.Backtest.PreviewLength)
	}
	if cfg.Sync.MaxWorkers != 4 || cfg.Sync.RateLimitPerMin != 200 || cfg.Sync.Retries != 3 {
		t.Errorf("Sync = %+v", cfg.Sync)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
storage:
  data_dir: "/original/data"
`)

	t.Setenv("ALPACA_API_KEY", "env-key")
	t.Setenv("DATA_DIR", "/env/data")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("TRADELAB_PORT", "9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (env override)", cfg.Alpaca.APIKey, "env-key")
	}
	// api_secret should remain from YAML since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q (from YAML)", cfg.Alpaca.APISecret, "yaml-secret")
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want text", cfg.Logging.Format)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}

	// The canonical SDK variable wins over ALPACA_API_KEY.
	t.Setenv("APCA_API_KEY_ID", "apca-key")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Alpaca.APIKey != "apca-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "apca-key")
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "server: [not, a, map]\n")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.Backtest.InitialCapital = -1
	cfg.Backtest.MinBars = 1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"initial_capital", "min_bars"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() = %q, missing %q", err, want)
		}
	}
}

func TestPath(t *testing.T) {
	clearEnv(t)
	if got := Path(); got != DefaultPath {
		t.Errorf("Path() = %q, want %q", got, DefaultPath)
	}
	t.Setenv("TRADELAB_CONFIG", "/etc/tradelab.yaml")
	if got := Path(); got != "/etc/tradelab.yaml" {
		t.Errorf("Path() = %q", got)
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "littlelemon.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServiceName != "menusync" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != "little_lemon.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Menu.SourceURL != DefaultMenuSourceURL {
		t.Errorf("SourceURL = %q", cfg.Menu.SourceURL)
	}
	if cfg.Menu.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.Menu.FetchTimeout)
	}
	if cfg.Menu.RefreshInterval != 0 {
		t.Errorf("RefreshInterval = %v, want single pass", cfg.Menu.RefreshInterval)
	}
	if cfg.Kafka.Enabled() {
		t.Error("kafka enabled without brokers")
	}
	if cfg.HTTP.Addr() != "127.0.0.1:8080" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
service_name = "kitchen"

[database]
driver = "sqlite"
dsn = "/tmp/menu.db"

[kafka]
brokers = ["localhost:9092"]

[menu]
source_url = "http://localhost:9000/menu.json"
fetch_timeout = "3s"
refresh_interval = "15m"
batch_size = 50
`)
	t.Setenv("APP_HTTP_PORT", "18080")
	t.Setenv("APP_MENU_FETCH_MAX_ATTEMPTS", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServiceName != "kitchen" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.Database.DSN != "/tmp/menu.db" {
		t.Errorf("DSN = %q", cfg.Database.DSN)
	}
	if !cfg.Kafka.Enabled() || cfg.Kafka.Topic != "menu.synced" {
		t.Errorf("Kafka = %+v", cfg.Kafka)
	}
	if cfg.Menu.FetchTimeout != 3*time.Second || cfg.Menu.RefreshInterval != 15*time.Minute {
		t.Errorf("Menu durations = %v / %v", cfg.Menu.FetchTimeout, cfg.Menu.RefreshInterval)
	}
	if cfg.Menu.BatchSize != 50 {
		t.Errorf("BatchSize = %d", cfg.Menu.BatchSize)
	}
	if cfg.HTTP.Port != 18080 {
		t.Errorf("HTTP.Port = %d, want env override", cfg.HTTP.Port)
	}
	if cfg.Menu.FetchMaxAttempts != 5 {
		t.Errorf("FetchMaxAttempts = %d, want env override", cfg.Menu.FetchMaxAttempts)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPC.Port != 9090 {
		t.Errorf("GRPC.Port = %d", cfg.GRPC.Port)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := writeConfig(t, `service_name = "x`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func validConfig() Config {
	return Config{
		ServiceName: "menusync",
		HTTP:        HTTPConfig{Enabled: true, Port: 8080},
		GRPC:        GRPCConfig{Enabled: true, Port: 9090},
		Database:    DatabaseConfig{Driver: "sqlite"},
		Menu:        MenuConfig{SourceURL: DefaultMenuSourceURL, FetchMaxAttempts: 1},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, "service_name"},
		{"bad http port", func(c *Config) { c.HTTP.Port = 70000 }, "HTTP port"},
		{"disabled http ignores port", func(c *Config) { c.HTTP = HTTPConfig{} }, ""},
		{"bad grpc port", func(c *Config) { c.GRPC.Port = 0 }, "gRPC port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "unsupported"},
		{"mysql needs dsn", func(c *Config) { c.Database.Driver = "mysql" }, "DSN"},
		{"postgres with dsn", func(c *Config) {
			c.Database = DatabaseConfig{Driver: "postgres", DSN: "host=localhost"}
		}, ""},
		{"missing source", func(c *Config) { c.Menu.SourceURL = "" }, "source_url"},
		{"negative interval", func(c *Config) { c.Menu.RefreshInterval = -time.Second }, "refresh_interval"},
		{"rate limit without redis", func(c *Config) { c.RateLimit.Enabled = true }, "redis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFillsDerivedDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Menu.FetchMaxAttempts = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Environment != "dev" {
		t.Errorf("Environment = %q", cfg.Environment)
	}
	if cfg.Database.DSN != "little_lemon.db" {
		t.Errorf("DSN = %q", cfg.Database.DSN)
	}
	if cfg.Menu.FetchMaxAttempts != 1 {
		t.Errorf("FetchMaxAttempts = %d", cfg.Menu.FetchMaxAttempts)
	}
}

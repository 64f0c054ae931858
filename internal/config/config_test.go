package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/calcsuite/internal/taxengine"
)

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Empty path uses defaults",
			configPath: "",
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	config, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.Output.Format != "pretty" {
		t.Errorf("Output.Format = %q, expected pretty", config.Output.Format)
	}
	if config.Logging.Level != "info" || config.Logging.Format != "json" {
		t.Errorf("Logging = %+v, expected info/json", config.Logging)
	}
	if config.Server.Address != ":3001" {
		t.Errorf("Server.Address = %q, expected :3001", config.Server.Address)
	}
	if config.Server.LeaderboardLimit != 10 {
		t.Errorf("Server.LeaderboardLimit = %d, expected 10", config.Server.LeaderboardLimit)
	}
	if config.Server.RateLimit.Auth != (RateLimit{Requests: 5, Window: 15 * time.Minute}) {
		t.Errorf("auth rate limit = %+v", config.Server.RateLimit.Auth)
	}
	if config.Server.RateLimit.Score != (RateLimit{Requests: 10, Window: time.Minute}) {
		t.Errorf("score rate limit = %+v", config.Server.RateLimit.Score)
	}
}

func TestLoadConfigurationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := []byte(`logging:
  level: debug
  format: console
  outputFile: /tmp/calcsuite.log
output:
  format: csv
tax:
  defaultJurisdiction: UK
  defaultFilingStatus: individual
  currency: GBP
server:
  address: 127.0.0.1:9000
  maxUploadSize: 1M
  jwtSecret: s3cret
  storePath: /var/lib/calcsuite
  leaderboardLimit: 25
  rateLimit:
    auth:
      requests: 3
      window: 10m
`)
	if err := os.WriteFile(path, contents, 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	config, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.Logging.Level != "debug" || config.Logging.Format != "console" || config.Logging.OutputFile != "/tmp/calcsuite.log" {
		t.Errorf("unexpected logging config %+v", config.Logging)
	}
	if config.Output.Format != "csv" {
		t.Errorf("Output.Format = %q, expected csv", config.Output.Format)
	}
	if config.Tax.DefaultJurisdiction != "UK" || config.Tax.DefaultFilingStatus != "individual" || config.Tax.Currency != "GBP" {
		t.Errorf("unexpected tax config %+v", config.Tax)
	}
	if config.Server.Address != "127.0.0.1:9000" || config.Server.MaxUploadSize != "1M" {
		t.Errorf("unexpected server config %+v", config.Server)
	}
	if config.Server.JWTSecret != "s3cret" || config.Server.StorePath != "/var/lib/calcsuite" {
		t.Errorf("unexpected server secrets/store %+v", config.Server)
	}
	if config.Server.LeaderboardLimit != 25 {
		t.Errorf("LeaderboardLimit = %d, expected 25", config.Server.LeaderboardLimit)
	}
	if config.Server.RateLimit.Auth != (RateLimit{Requests: 3, Window: 10 * time.Minute}) {
		t.Errorf("auth rate limit = %+v", config.Server.RateLimit.Auth)
	}
	if config.Server.RateLimit.Score != (RateLimit{Requests: 10, Window: time.Minute}) {
		t.Errorf("score rate limit should keep its default, got %+v", config.Server.RateLimit.Score)
	}
}

func TestLoadConfigurationEnvOverride(t *testing.T) {
	t.Setenv("CALCSUITE_SERVER_JWTSECRET", "from-env")
	t.Setenv("CALCSUITE_OUTPUT_FORMAT", "json")

	config, err := LoadConfigurationFromReader(strings.NewReader("output:\n  format: csv\n"))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if config.Server.JWTSecret != "from-env" {
		t.Errorf("JWTSecret = %q, expected env override", config.Server.JWTSecret)
	}
	if config.Output.Format != "json" {
		t.Errorf("Output.Format = %q, expected env override json", config.Output.Format)
	}
}

func TestLoadConfigurationRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"Unknown output format", "output:\n  format: xml\n"},
		{"Unknown log level", "logging:\n  level: verbose\n"},
		{"Unknown log format", "logging:\n  format: logfmt\n"},
		{"Negative rate limit", "server:\n  rateLimit:\n    score:\n      requests: -1\n"},
		{"Negative leaderboard limit", "server:\n  leaderboardLimit: -5\n"},
		{"Malformed YAML", "output: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfigurationFromReader(strings.NewReader(tt.contents)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoggingConfiguration(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		expected LoggingConfig
	}{
		{
			name:     "Defaults",
			contents: "",
			expected: LoggingConfig{Level: "info", Format: "json"},
		},
		{
			name:     "Warn level with console output",
			contents: "logging:\n  level: warn\n  format: console\n",
			expected: LoggingConfig{Level: "warn", Format: "console"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfigurationFromReader(strings.NewReader(tt.contents))
			if err != nil {
				t.Fatalf("LoadConfigurationFromReader() error = %v", err)
			}
			if config.Logging != tt.expected {
				t.Errorf("Logging = %+v, expected %+v", config.Logging, tt.expected)
			}
		})
	}
}

func TestTaxConfigLoadTable(t *testing.T) {
	table, err := TaxConfig{}.LoadTable()
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if table.Year() != 2023 {
		t.Errorf("bundled table year = %d, expected 2023", table.Year())
	}

	if _, err := (TaxConfig{BracketFile: filepath.Join(t.TempDir(), "missing.yaml")}).LoadTable(); err == nil {
		t.Error("expected error for missing bracket file")
	}
}

func TestValidateConfiguration(t *testing.T) {
	table := taxengine.MustDefaultTable()

	tests := []struct {
		name     string
		config   Configuration
		warnings []string
	}{
		{
			name: "Clean configuration",
			config: Configuration{
				Tax:    TaxConfig{DefaultJurisdiction: "US", Currency: "usd"},
				Server: ServerConfig{JWTSecret: "prod-secret"},
			},
		},
		{
			name:     "Unknown jurisdiction",
			config:   Configuration{Tax: TaxConfig{DefaultJurisdiction: "ZZ"}, Server: ServerConfig{JWTSecret: "x"}},
			warnings: []string{"ZZ is unknown"},
		},
		{
			name:     "Jurisdiction without brackets",
			config:   Configuration{Tax: TaxConfig{DefaultJurisdiction: "de"}, Server: ServerConfig{JWTSecret: "x"}},
			warnings: []string{"DE has no bracket table"},
		},
		{
			name:     "Filing status outside jurisdiction",
			config:   Configuration{Tax: TaxConfig{DefaultJurisdiction: "UK", DefaultFilingStatus: "single"}, Server: ServerConfig{JWTSecret: "x"}},
			warnings: []string{"filing status single is not offered in UK"},
		},
		{
			name:     "Unknown currency",
			config:   Configuration{Tax: TaxConfig{Currency: "dollars"}, Server: ServerConfig{JWTSecret: "x"}},
			warnings: []string{"currency dollars is not a known ISO code"},
		},
		{
			name:     "Missing JWT secret",
			config:   Configuration{},
			warnings: []string{"server.jwtSecret is not set"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.config.ValidateConfiguration(table)
			if len(got) != len(tt.warnings) {
				t.Fatalf("ValidateConfiguration() = %v, expected %d warnings", got, len(tt.warnings))
			}
			for i, want := range tt.warnings {
				if !strings.Contains(got[i], want) {
					t.Errorf("warning %d = %q, expected to contain %q", i, got[i], want)
				}
			}
		})
	}
}

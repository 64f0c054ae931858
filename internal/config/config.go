// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/calcsuite/internal/taxengine"
	"github.com/iwvelando/calcsuite/pkg/constants"
	"github.com/iwvelando/calcsuite/pkg/format"
	"github.com/iwvelando/calcsuite/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for calcsuite.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	Tax     TaxConfig     `yaml:"tax,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// TaxConfig holds defaults for tax calculations.
type TaxConfig struct {
	DefaultJurisdiction string `yaml:"defaultJurisdiction,omitempty"`
	DefaultFilingStatus string `yaml:"defaultFilingStatus,omitempty"`
	// Currency overrides the display currency of every jurisdiction.
	Currency string `yaml:"currency,omitempty"`
	// BracketFile replaces the bundled bracket tables.
	BracketFile string `yaml:"bracketFile,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address          string          `yaml:"address,omitempty"`
	MaxUploadSize    string          `yaml:"maxUploadSize,omitempty"`
	JWTSecret        string          `yaml:"jwtSecret,omitempty"`
	StorePath        string          `yaml:"storePath,omitempty"` // empty keeps the leaderboard in memory
	LeaderboardLimit int             `yaml:"leaderboardLimit,omitempty"`
	RateLimit        RateLimitConfig `yaml:"rateLimit,omitempty"`
}

// RateLimitConfig groups the per-route request limits.
type RateLimitConfig struct {
	Auth  RateLimit `yaml:"auth,omitempty"`
	Score RateLimit `yaml:"score,omitempty"`
}

// RateLimit allows Requests per Window for each client.
type RateLimit struct {
	Requests int           `yaml:"requests,omitempty"`
	Window   time.Duration `yaml:"window,omitempty"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("tax.defaultJurisdiction", "")
	v.SetDefault("tax.defaultFilingStatus", "")
	v.SetDefault("tax.currency", "")
	v.SetDefault("tax.bracketFile", "")
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxUploadSize", "256K")
	v.SetDefault("server.jwtSecret", "")
	v.SetDefault("server.storePath", "")
	v.SetDefault("server.leaderboardLimit", constants.DefaultLeaderboardLimit)
	v.SetDefault("server.rateLimit.auth.requests", 5)
	v.SetDefault("server.rateLimit.auth.window", 15*time.Minute)
	v.SetDefault("server.rateLimit.score.requests", 10)
	v.SetDefault("server.rateLimit.score.window", time.Minute)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields the defaults. Environment
// variables prefixed with CALCSUITE_ override both, e.g.
// CALCSUITE_SERVER_JWTSECRET.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Validate rejects settings that cannot be used.
func (c *Configuration) Validate() error {
	var errs []error
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			errs = append(errs, err)
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("invalid log format: %s", c.Logging.Format))
	}
	for name, limit := range map[string]RateLimit{"auth": c.Server.RateLimit.Auth, "score": c.Server.RateLimit.Score} {
		if limit.Requests < 0 || limit.Window < 0 {
			errs = append(errs, fmt.Errorf("invalid %s rate limit: %d per %s", name, limit.Requests, limit.Window))
		}
	}
	if c.Server.LeaderboardLimit < 0 {
		errs = append(errs, fmt.Errorf("invalid leaderboard limit: %d", c.Server.LeaderboardLimit))
	}
	return errors.Join(errs...)
}

// LoadTable returns the bracket table selected by the configuration.
func (t TaxConfig) LoadTable() (*taxengine.BracketTable, error) {
	if t.BracketFile != "" {
		return taxengine.LoadTableFile(t.BracketFile)
	}
	return taxengine.DefaultTable()
}

// ValidateConfiguration performs general validation of the configuration
// against the bracket table and returns warnings.
func (c *Configuration) ValidateConfiguration(table *taxengine.BracketTable) []string {
	var warnings []string

	if j := c.Tax.DefaultJurisdiction; j != "" {
		meta, ok := table.Jurisdiction(j)
		switch {
		case !ok:
			warnings = append(warnings, fmt.Sprintf("default jurisdiction %s is unknown and will be taxed with the fallback brackets", j))
		case len(meta.HasBrackets) == 0:
			warnings = append(warnings, fmt.Sprintf("default jurisdiction %s has no bracket table of its own and will be taxed with the fallback brackets", meta.Code))
		}
		if s := c.Tax.DefaultFilingStatus; ok && s != "" && !meta.HasFilingStatus(s) {
			warnings = append(warnings, fmt.Sprintf("default filing status %s is not offered in %s", s, meta.Code))
		}
	}

	if c.Tax.Currency != "" && strings.ToUpper(strings.TrimSpace(c.Tax.Currency)) != format.NormalizeCurrency(c.Tax.Currency) {
		warnings = append(warnings, fmt.Sprintf("currency %s is not a known ISO code; amounts will be shown in %s", c.Tax.Currency, constants.DefaultCurrency))
	}

	if c.Server.JWTSecret == "" || c.Server.JWTSecret == constants.DefaultJWTSecret {
		warnings = append(warnings, "server.jwtSecret is not set; tokens are signed with the development secret")
	}

	return warnings
}

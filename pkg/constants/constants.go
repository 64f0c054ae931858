// Package constants provides shared constants for the calcsuite application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Tax defaults
const (
	// DefaultJurisdiction is used when no jurisdiction is requested and is the
	// owner of the fallback bracket table.
	DefaultJurisdiction = "US"

	// DefaultFilingStatus is the filing status of the fallback bracket table.
	DefaultFilingStatus = "single"

	// DefaultCurrency is used when a currency code is missing or unknown.
	DefaultCurrency = "USD"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "CALCSUITE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":3001"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultJWTSecret is only suitable for local development
	DefaultJWTSecret = "your-secret-key-change-in-production"

	// DefaultLeaderboardLimit is the number of leaderboard rows returned when no
	// limit is requested
	DefaultLeaderboardLimit = 10

	// MinPasswordLength is the shortest accepted password
	MinPasswordLength = 6

	// MaxPasswordLength is the longest password bcrypt accepts, in bytes
	MaxPasswordLength = 72

	// BcryptCost is the bcrypt work factor for stored passwords
	BcryptCost = 10
)

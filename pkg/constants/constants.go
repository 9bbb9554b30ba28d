// Package constants provides shared constants for the loan-tracker application.
package constants

// DateLayout is the calendar date format used in config files, API payloads
// and rendered output.
const DateLayout = "2006-01-02"

// MonthLayout is the month-level format used for schedule labels.
const MonthLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPlaces is the number of decimal places kept for currency values
	DecimalPlaces = 2

	// MaxSimulationMonths bounds the actual schedule simulation (100 years)
	MaxSimulationMonths = 1200

	// MinTermMonths is the shortest term the engine will amortize over
	MinTermMonths = 1

	// MaxTermYears is the longest accepted loan term, matching the simulation bound
	MaxTermYears = MaxSimulationMonths / MonthsPerYear
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// DefaultHistoryLimit is the number of history rows rendered by default
	DefaultHistoryLimit = 30
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

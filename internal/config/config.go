// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/datetime"
	"github.com/iwvelando/loan-tracker/pkg/loans"
	"github.com/iwvelando/loan-tracker/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for loan-tracker.
type Configuration struct {
	Loan    LoanConfig
	AsOf    string        `yaml:"asOf,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	Advisor AdvisorConfig `yaml:"advisor,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format       string `yaml:"format,omitempty"` // pretty, csv, json
	HistoryLimit int    `yaml:"historyLimit,omitempty"`
	Locale       string `yaml:"locale,omitempty"`
	Currency     string `yaml:"currency,omitempty"`
}

// AdvisorConfig controls the optional advisory commentary.
type AdvisorConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Provider  string        `yaml:"provider,omitempty"` // gemini, openai
	Model     string        `yaml:"model,omitempty"`
	APIKeyEnv string        `yaml:"apiKeyEnv,omitempty"`
	BaseURL   string        `yaml:"baseURL,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	CacheTTL  time.Duration `yaml:"cacheTTL,omitempty"`
	RedisAddr string        `yaml:"redisAddr,omitempty"`
}

// LoanConfig describes the loan terms as written in the config file.
type LoanConfig struct {
	Principal     float64
	InterestRate  float64
	Years         int
	StartDate     string
	ExtraPayments []ExtraPaymentConfig
}

// ExtraPaymentConfig is a one-time principal payment. Dates use YYYY-MM-DD.
type ExtraPaymentConfig struct {
	ID     string
	Name   string
	Amount float64
	Date   string
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	if configuration.Output.Format == "" {
		configuration.Output.Format = constants.OutputFormatPretty
	}
	if configuration.Output.HistoryLimit <= 0 {
		configuration.Output.HistoryLimit = constants.DefaultHistoryLimit
	}
	return &configuration, nil
}

// LoanInput converts the loan section into engine input. Extra payments
// without an id are assigned a random UUID.
func (c *Configuration) LoanInput() (loans.LoanInput, error) {
	start, err := datetime.ParseDate(c.Loan.StartDate)
	if err != nil {
		return loans.LoanInput{}, fmt.Errorf("loan start date: %w", err)
	}

	input := loans.LoanInput{
		Principal:     c.Loan.Principal,
		InterestRate:  c.Loan.InterestRate,
		Years:         c.Loan.Years,
		StartDate:     start,
		ExtraPayments: make(loans.ExtraPayments, 0, len(c.Loan.ExtraPayments)),
	}

	for i, extra := range c.Loan.ExtraPayments {
		date, err := datetime.ParseDate(extra.Date)
		if err != nil {
			return loans.LoanInput{}, fmt.Errorf("extra payment %d (%s): %w", i+1, extra.Name, err)
		}
		id := strings.TrimSpace(extra.ID)
		if id == "" {
			id = uuid.NewString()
		}
		input.ExtraPayments = append(input.ExtraPayments, loans.ExtraPayment{
			ID:     id,
			Name:   extra.Name,
			Amount: extra.Amount,
			Date:   date,
		})
	}

	return input, nil
}

// AsOfTime returns the configured evaluation date, or now when none is set.
func (c *Configuration) AsOfTime(now time.Time) (time.Time, error) {
	if strings.TrimSpace(c.AsOf) == "" {
		return datetime.Day(now), nil
	}
	asOf, err := datetime.ParseDate(c.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("asOf: %w", err)
	}
	return asOf, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	input, err := c.LoanInput()
	if err != nil {
		return append(warnings, err.Error())
	}

	_, sanitizeWarnings := validation.SanitizeLoanInput(input)
	warnings = append(warnings, sanitizeWarnings...)
	warnings = append(warnings, validation.ValidateExtraPayments(input)...)

	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		warnings = append(warnings, err.Error())
	}

	if c.Advisor.Enabled {
		switch c.Advisor.Provider {
		case "gemini", "openai", "":
		default:
			warnings = append(warnings, fmt.Sprintf("unknown advisor provider %q, advice will use the fallback message", c.Advisor.Provider))
		}
	}

	return warnings
}

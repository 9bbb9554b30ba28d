package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/datetime"
)

const sampleConfig = `
asOf: "2024-03-20"
loan:
  principal: 500000
  interestRate: 4.5
  years: 5
  startDate: "2024-01-15"
  extraPayments:
    - id: bonus-2024
      name: Bonus
      amount: 50000
      date: "2024-02-15"
    - name: Tax refund
      amount: 1200
      date: "2024-05-02"
logging:
  level: debug
  format: console
advisor:
  enabled: true
  provider: gemini
  model: gemini-1.5-flash
  apiKeyEnv: GEMINI_API_KEY
  timeout: 5s
  cacheTTL: 1h
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

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
			name:       "Valid config file",
			configPath: writeConfig(t, sampleConfig),
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

func TestLoadConfigurationFields(t *testing.T) {
	config, err := LoadConfiguration(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.Loan.Principal != 500000 || config.Loan.InterestRate != 4.5 || config.Loan.Years != 5 {
		t.Errorf("unexpected loan terms: %+v", config.Loan)
	}
	if config.Loan.StartDate != "2024-01-15" {
		t.Errorf("StartDate = %q, expected 2024-01-15", config.Loan.StartDate)
	}
	if len(config.Loan.ExtraPayments) != 2 {
		t.Fatalf("expected 2 extra payments, got %d", len(config.Loan.ExtraPayments))
	}
	if config.Loan.ExtraPayments[0].ID != "bonus-2024" {
		t.Errorf("first extra payment id = %q", config.Loan.ExtraPayments[0].ID)
	}
	if config.AsOf != "2024-03-20" {
		t.Errorf("AsOf = %q, expected 2024-03-20", config.AsOf)
	}
	if config.Logging.Level != "debug" || config.Logging.Format != "console" {
		t.Errorf("unexpected logging config: %+v", config.Logging)
	}
	if config.Output.Format != constants.OutputFormatPretty {
		t.Errorf("Output.Format = %q, expected default %q", config.Output.Format, constants.OutputFormatPretty)
	}
	if config.Output.HistoryLimit != constants.DefaultHistoryLimit {
		t.Errorf("Output.HistoryLimit = %d, expected default %d", config.Output.HistoryLimit, constants.DefaultHistoryLimit)
	}
	if !config.Advisor.Enabled || config.Advisor.Provider != "gemini" || config.Advisor.APIKeyEnv != "GEMINI_API_KEY" {
		t.Errorf("unexpected advisor config: %+v", config.Advisor)
	}
	if config.Advisor.Timeout != 5*time.Second || config.Advisor.CacheTTL != time.Hour {
		t.Errorf("advisor durations = %v/%v, expected 5s/1h", config.Advisor.Timeout, config.Advisor.CacheTTL)
	}
}

func TestLoadConfigurationFromReader(t *testing.T) {
	config, err := LoadConfigurationFromReader(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if config.Loan.Principal != 500000 {
		t.Errorf("Principal = %v, expected 500000", config.Loan.Principal)
	}

	if _, err := LoadConfigurationFromReader(strings.NewReader("loan: [unterminated")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoanInput(t *testing.T) {
	config, err := LoadConfigurationFromReader(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}

	input, err := config.LoanInput()
	if err != nil {
		t.Fatalf("LoanInput() error = %v", err)
	}

	if !input.StartDate.Equal(datetime.MustParseDate("2024-01-15")) {
		t.Errorf("StartDate = %v", input.StartDate)
	}
	if len(input.ExtraPayments) != 2 {
		t.Fatalf("expected 2 extra payments, got %d", len(input.ExtraPayments))
	}
	if input.ExtraPayments[0].ID != "bonus-2024" {
		t.Errorf("explicit id not kept: %q", input.ExtraPayments[0].ID)
	}
	if len(input.ExtraPayments[1].ID) != 36 {
		t.Errorf("missing id should be replaced with a UUID, got %q", input.ExtraPayments[1].ID)
	}
	if !input.ExtraPayments[1].Date.Equal(datetime.MustParseDate("2024-05-02")) {
		t.Errorf("extra payment date = %v", input.ExtraPayments[1].Date)
	}
}

func TestLoanInputErrors(t *testing.T) {
	tests := []struct {
		name   string
		config Configuration
	}{
		{
			name:   "Missing start date",
			config: Configuration{Loan: LoanConfig{Principal: 1000, Years: 1}},
		},
		{
			name:   "Malformed start date",
			config: Configuration{Loan: LoanConfig{Principal: 1000, Years: 1, StartDate: "15/01/2024"}},
		},
		{
			name: "Malformed extra payment date",
			config: Configuration{Loan: LoanConfig{
				Principal: 1000, Years: 1, StartDate: "2024-01-15",
				ExtraPayments: []ExtraPaymentConfig{{Name: "Bad", Amount: 10, Date: "soon"}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.config.LoanInput(); err == nil {
				t.Error("LoanInput() expected error but got none")
			}
		})
	}
}

func TestAsOfTime(t *testing.T) {
	now := time.Date(2025, 6, 3, 17, 45, 0, 0, time.UTC)

	config := &Configuration{}
	asOf, err := config.AsOfTime(now)
	if err != nil {
		t.Fatalf("AsOfTime() error = %v", err)
	}
	if !asOf.Equal(datetime.MustParseDate("2025-06-03")) {
		t.Errorf("AsOfTime() = %v, expected the calendar day of now", asOf)
	}

	config.AsOf = "2024-03-20"
	asOf, err = config.AsOfTime(now)
	if err != nil {
		t.Fatalf("AsOfTime() error = %v", err)
	}
	if !asOf.Equal(datetime.MustParseDate("2024-03-20")) {
		t.Errorf("AsOfTime() = %v, expected 2024-03-20", asOf)
	}

	config.AsOf = "yesterday"
	if _, err := config.AsOfTime(now); err == nil {
		t.Error("expected error for malformed asOf")
	}
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name          string
		config        Configuration
		expectedParts []string
	}{
		{
			name: "Clean configuration",
			config: Configuration{
				Loan: LoanConfig{Principal: 1000, InterestRate: 5, Years: 1, StartDate: "2024-01-01"},
				Output: OutputConfig{Format: constants.OutputFormatJSON},
			},
		},
		{
			name: "Extra payment before start",
			config: Configuration{
				Loan: LoanConfig{Principal: 1000, InterestRate: 5, Years: 1, StartDate: "2024-01-01",
					ExtraPayments: []ExtraPaymentConfig{{ID: "a", Name: "Early", Amount: 10, Date: "2023-12-01"}}},
				Output: OutputConfig{Format: constants.OutputFormatPretty},
			},
			expectedParts: []string{"dated before"},
		},
		{
			name: "Unsupported output format and provider",
			config: Configuration{
				Loan:    LoanConfig{Principal: 1000, InterestRate: 5, Years: 1, StartDate: "2024-01-01"},
				Output:  OutputConfig{Format: "xml"},
				Advisor: AdvisorConfig{Enabled: true, Provider: "oracle"},
			},
			expectedParts: []string{"expected output format", "unknown advisor provider"},
		},
		{
			name:          "Unparseable loan",
			config:        Configuration{Loan: LoanConfig{StartDate: "never"}},
			expectedParts: []string{"loan start date"},
		},
		{
			name: "Negative principal",
			config: Configuration{
				Loan:   LoanConfig{Principal: -5, InterestRate: 5, Years: 1, StartDate: "2024-01-01"},
				Output: OutputConfig{Format: constants.OutputFormatCSV},
			},
			expectedParts: []string{"invalid principal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := tt.config.ValidateConfiguration()
			if len(tt.expectedParts) == 0 && len(warnings) != 0 {
				t.Errorf("expected no warnings, got %v", warnings)
			}
			joined := strings.Join(warnings, "\n")
			for _, part := range tt.expectedParts {
				if !strings.Contains(joined, part) {
					t.Errorf("expected a warning containing %q, got %v", part, warnings)
				}
			}
		})
	}
}

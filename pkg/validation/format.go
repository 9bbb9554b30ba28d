// Package validation provides input and configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/loan-tracker/pkg/constants"
)

// ValidateOutputFormat checks the requested output format is supported.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
}

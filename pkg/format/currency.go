// Package format renders monetary amounts for presentation.
package format

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts with locale-specific grouping and an optional
// ISO currency code suffix.
type Formatter struct {
	printer *message.Printer
	code    string
}

// NewFormatter creates a formatter for the BCP 47 locale (e.g. "en", "cs-CZ").
// An empty locale falls back to English.
func NewFormatter(locale, currencyCode string) (*Formatter, error) {
	tag := language.English
	if trimmed := strings.TrimSpace(locale); trimmed != "" {
		parsed, err := language.Parse(trimmed)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
		}
		tag = parsed
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		code:    strings.ToUpper(strings.TrimSpace(currencyCode)),
	}, nil
}

// Default returns an English formatter without a currency code.
func Default() *Formatter {
	return &Formatter{printer: message.NewPrinter(language.English)}
}

// Currency returns the amount with two decimals and thousands separators,
// followed by the currency code if one is configured (e.g. "-1,234.56 CZK").
func (f *Formatter) Currency(amount float64) string {
	formatted := f.Number(amount)
	if f.code == "" {
		return formatted
	}
	return formatted + " " + f.code
}

// Number returns the amount with two decimals and thousands separators.
func (f *Formatter) Number(amount float64) string {
	return f.printer.Sprintf("%.2f", amount)
}

// Code returns the configured currency code.
func (f *Formatter) Code() string {
	return f.code
}

// Currency formats an amount with the default formatter.
func Currency(amount float64) string {
	return Default().Currency(amount)
}

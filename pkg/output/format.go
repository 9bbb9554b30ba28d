// Package output provides utilities for formatting and displaying loan results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/format"
)

// PrettyFormat writes a human-readable summary followed by the payment
// history. At most historyLimit history rows are written; a non-positive
// limit means constants.DefaultHistoryLimit.
func PrettyFormat(w io.Writer, report Report, f *format.Formatter, historyLimit int) {
	if f == nil {
		f = format.Default()
	}
	if historyLimit <= 0 {
		historyLimit = constants.DefaultHistoryLimit
	}

	s := report.Summary
	fmt.Fprintf(w, "--- Loan summary as of %s ---\n", s.AsOf)
	rows := [][2]string{
		{"Monthly payment", f.Currency(s.MonthlyPayment)},
		{"Paid to date", f.Currency(s.PaidToDate)},
		{"Extra paid to date", f.Currency(s.ExtraPaidToDate)},
		{"Current balance", f.Currency(s.CurrentBalance)},
		{"Total interest (contract)", f.Currency(s.TheoreticalTotalInterest)},
		{"Total interest (actual)", f.Currency(s.ActualTotalInterest)},
		{"Total paid (contract)", f.Currency(s.TheoreticalTotalPaid)},
		{"Total paid (actual)", f.Currency(s.ActualTotalPaid)},
		{"Original payoff", orDash(s.OriginalPayoffDate)},
		{"Projected payoff", orDash(s.ProjectedPayoffDate)},
		{"Months saved", strconv.Itoa(s.MonthsSaved)},
		{"Interest saved", f.Currency(s.InterestSaved)},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%-26s| %s\n", row[0], row[1])
	}
	if s.Truncated {
		fmt.Fprintf(w, "Warning: schedule stopped after %d months with a balance outstanding\n",
			constants.MaxSimulationMonths)
	}

	fmt.Fprintf(w, "\n--- Payment history ---\n")
	fmt.Fprintf(w, "Date       | Amount        | Balance        | Notes\n")
	fmt.Fprintf(w, "__________ | _____________ | ______________ | _____\n")
	shown := report.History
	if len(shown) > historyLimit {
		shown = shown[:historyLimit]
	}
	for _, event := range shown {
		note := event.Label
		if event.Projected {
			note += " (projected)"
		}
		fmt.Fprintf(w, "%s | %13s | %14s | %s\n", event.Date, f.Currency(event.Amount), f.Currency(event.Balance), note)
	}
	if len(report.History) > len(shown) {
		fmt.Fprintf(w, "Showing first %d of %d transactions.\n", len(shown), len(report.History))
	}

	if len(report.Unapplied) > 0 {
		fmt.Fprintf(w, "\n--- Extra payments not applied ---\n")
		for _, extra := range report.Unapplied {
			fmt.Fprintf(w, "%s | %13s | %s\n", extra.Date, f.Currency(extra.Amount), extra.Name)
		}
	}
}

// CsvFormat writes the actual schedule in comma-separated value format.
func CsvFormat(w io.Writer, report Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"period", "date", "payment", "paid", "principal", "interest", "extra", "balance", "projected"}); err != nil {
		return err
	}
	for _, row := range report.Actual {
		record := []string{
			strconv.Itoa(row.Period),
			row.Date,
			amount(row.Payment),
			amount(row.AmountPaid),
			amount(row.Principal),
			amount(row.Interest),
			amount(row.Extra),
			amount(row.RemainingBalance),
			strconv.FormatBool(row.Projected),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CsvString renders CsvFormat into a string.
func CsvString(report Report) (string, error) {
	var sb strings.Builder
	if err := CsvFormat(&sb, report); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// JSONFormat writes the full report as indented JSON.
func JSONFormat(w io.Writer, report Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// Write renders the report in the named output format.
func Write(w io.Writer, outputFormat string, report Report, f *format.Formatter, historyLimit int) error {
	switch outputFormat {
	case constants.OutputFormatPretty, "":
		PrettyFormat(w, report, f, historyLimit)
		return nil
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatJSON:
		return JSONFormat(w, report)
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', constants.DecimalPlaces, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

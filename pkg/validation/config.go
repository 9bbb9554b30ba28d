package validation

import (
	"fmt"

	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/datetime"
	"github.com/iwvelando/loan-tracker/pkg/loans"
	"github.com/iwvelando/loan-tracker/pkg/mathutil"
)

// SanitizeLoanInput coerces malformed numeric input into values the engine
// accepts and reports each correction as a warning. Non-finite or negative
// numbers become 0, the term is clamped to [1, constants.MaxTermYears] years
// and extra payments that cannot be applied are dropped.
func SanitizeLoanInput(input loans.LoanInput) (loans.LoanInput, []string) {
	var warnings []string
	out := input

	if !mathutil.IsFinite(out.Principal) || out.Principal < 0 {
		warnings = append(warnings, fmt.Sprintf("invalid principal %v replaced with 0", out.Principal))
		out.Principal = 0
	}
	if !mathutil.IsFinite(out.InterestRate) || out.InterestRate < 0 {
		warnings = append(warnings, fmt.Sprintf("invalid interest rate %v replaced with 0", out.InterestRate))
		out.InterestRate = 0
	}
	if out.Years < 1 {
		warnings = append(warnings, fmt.Sprintf("invalid term of %d years replaced with 1", out.Years))
		out.Years = 1
	}
	if out.Years > constants.MaxTermYears {
		warnings = append(warnings, fmt.Sprintf("term of %d years exceeds the maximum, replaced with %d",
			out.Years, constants.MaxTermYears))
		out.Years = constants.MaxTermYears
	}
	if out.StartDate.IsZero() {
		warnings = append(warnings, "missing start date")
	}

	out.ExtraPayments = make(loans.ExtraPayments, 0, len(input.ExtraPayments))
	for _, payment := range input.ExtraPayments {
		if err := payment.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("extra payment '%s' dropped: %v", payment.Name, err))
			continue
		}
		out.ExtraPayments = append(out.ExtraPayments, payment)
	}

	return out, warnings
}

// ValidateExtraPayments reports extra payments that can never be applied to the
// contractual schedule and IDs that are not unique.
func ValidateExtraPayments(input loans.LoanInput) []string {
	var warnings []string

	maturity := datetime.AddMonths(input.StartDate, loans.TermMonths(input.Years))
	seen := make(map[string]struct{}, len(input.ExtraPayments))

	for _, payment := range input.ExtraPayments {
		if payment.ID != "" {
			if _, dup := seen[payment.ID]; dup {
				warnings = append(warnings, fmt.Sprintf("Extra payment '%s' reuses id %s", payment.Name, payment.ID))
			}
			seen[payment.ID] = struct{}{}
		}
		if payment.Date.Before(input.StartDate) {
			warnings = append(warnings, fmt.Sprintf("Extra payment '%s' is dated before the loan start (%s < %s) and will be ignored",
				payment.Name, datetime.FormatDate(payment.Date), datetime.FormatDate(input.StartDate)))
		}
		if !payment.Date.Before(maturity) {
			warnings = append(warnings, fmt.Sprintf("Extra payment '%s' is dated at or after maturity (%s >= %s) and will be ignored",
				payment.Name, datetime.FormatDate(payment.Date), datetime.FormatDate(maturity)))
		}
	}

	return warnings
}

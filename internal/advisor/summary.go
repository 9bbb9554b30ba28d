// Package advisor produces best-effort natural-language commentary on a loan
// projection. Failures never propagate: callers always receive text, falling
// back to FallbackMessage.
package advisor

import (
	"fmt"
	"strings"

	"github.com/iwvelando/loan-tracker/pkg/format"
	"github.com/iwvelando/loan-tracker/pkg/loans"
	"github.com/iwvelando/loan-tracker/pkg/mathutil"
)

// FallbackMessage is returned whenever commentary cannot be generated.
const FallbackMessage = "Sorry, the analysis could not be generated. Please try again later."

// HigherPaymentFactor scales the contractual payment for the what-if scenario.
const HigherPaymentFactor = 1.10

// Summary is the subset of a loan and its projection sent to the provider.
type Summary struct {
	Principal           float64 `json:"principal"`
	InterestRate        float64 `json:"interestRate"`
	Years               int     `json:"years"`
	MonthlyPayment      float64 `json:"monthlyPayment"`
	TotalInterest       float64 `json:"totalInterest"`
	ActualTotalInterest float64 `json:"actualTotalInterest"`
	ExtraPaidToDate     float64 `json:"extraPaidToDate"`
	InterestSaved       float64 `json:"interestSaved"`
	MonthsSaved         int     `json:"monthsSaved"`
	HigherPayment       WhatIf  `json:"higherPayment"`
}

// WhatIf describes the loan paid at a raised monthly payment with no extras.
type WhatIf struct {
	MonthlyPayment float64 `json:"monthlyPayment"`
	Months         int     `json:"months"`
	TotalInterest  float64 `json:"totalInterest"`
	InterestSaved  float64 `json:"interestSaved"`
	MonthsSaved    int     `json:"monthsSaved"`
	Feasible       bool    `json:"feasible"`
}

// NewSummary extracts the advisory summary from a loan and its result,
// including the effect of raising the monthly payment by HigherPaymentFactor.
func NewSummary(input loans.LoanInput, result loans.Result) Summary {
	summary := Summary{
		Principal:           input.Principal,
		InterestRate:        input.InterestRate,
		Years:               input.Years,
		MonthlyPayment:      result.MonthlyPayment,
		TotalInterest:       result.TheoreticalTotalInterest,
		ActualTotalInterest: result.ActualTotalInterest,
		ExtraPaidToDate:     result.ExtraPaidToDate,
		InterestSaved:       result.InterestSaved,
		MonthsSaved:         result.MonthsSaved,
	}

	payment := mathutil.Round(result.MonthlyPayment * HigherPaymentFactor)
	months, interest, ok := loans.PayoffWithPayment(input.Principal, input.InterestRate, payment)
	summary.HigherPayment = WhatIf{
		MonthlyPayment: payment,
		Months:         months,
		TotalInterest:  interest,
		Feasible:       ok,
	}
	if ok {
		summary.HigherPayment.InterestSaved = mathutil.Max(0, mathutil.Round(result.TheoreticalTotalInterest-interest))
		if saved := len(result.TheoreticalSchedule) - months; saved > 0 {
			summary.HigherPayment.MonthsSaved = saved
		}
	}

	return summary
}

// BuildPrompt renders the request sent to the language model.
func BuildPrompt(s Summary, f *format.Formatter) string {
	if f == nil {
		f = format.Default()
	}

	var b strings.Builder
	b.WriteString("As a financial advisor, analyse the following loan:\n")
	fmt.Fprintf(&b, "- Principal: %s\n", f.Currency(s.Principal))
	fmt.Fprintf(&b, "- Interest rate: %.2f%%\n", s.InterestRate)
	fmt.Fprintf(&b, "- Term: %d years\n", s.Years)
	fmt.Fprintf(&b, "- Monthly payment: %s\n", f.Currency(s.MonthlyPayment))
	fmt.Fprintf(&b, "- Total interest: %s\n", f.Currency(s.TotalInterest))
	if s.ExtraPaidToDate > 0 || s.InterestSaved > 0 {
		fmt.Fprintf(&b, "- Extra payments made so far: %s\n", f.Currency(s.ExtraPaidToDate))
		fmt.Fprintf(&b, "- Interest saved by extra payments: %s (%d months sooner)\n", f.Currency(s.InterestSaved), s.MonthsSaved)
	}

	b.WriteString("\nGive brief advice in 3-4 points:\n")
	b.WriteString("1. How the interest rate compares to the current market.\n")
	b.WriteString("2. When extra payments are worth making.\n")
	b.WriteString("3. Potential risks and refinancing tips.\n")
	if s.HigherPayment.Feasible {
		fmt.Fprintf(&b, "4. The effect of raising the monthly payment by 10%% to %s: paid off in %d months, saving %s in interest.\n",
			f.Currency(s.HigherPayment.MonthlyPayment), s.HigherPayment.Months, f.Currency(s.HigherPayment.InterestSaved))
	} else {
		b.WriteString("4. The effect of raising the monthly payment by 10%.\n")
	}
	b.WriteString("\nAnswer in plain text. Do not use Markdown headings or asterisks; bullet points are fine.\n")

	return b.String()
}

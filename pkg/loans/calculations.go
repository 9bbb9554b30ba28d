// Package loans provides the amortization engine: the contractual schedule of
// a fixed-rate loan and the actual schedule once extra principal payments are
// reconciled into it.
package loans

import (
	"math"

	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/mathutil"
)

// TermMonths converts a term in years into a number of monthly periods, never
// less than one.
func TermMonths(years int) int {
	months := years * constants.MonthsPerYear
	if months < constants.MinTermMonths {
		return constants.MinTermMonths
	}
	return months
}

// MonthlyRate returns the periodic rate for an annual percentage rate.
func MonthlyRate(annualInterestRate float64) float64 {
	return annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the
// standard amortization formula, rounded to currency precision.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termMonths int) float64 {
	if termMonths < constants.MinTermMonths {
		termMonths = constants.MinTermMonths
	}
	if annualInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return mathutil.Round(principal / float64(termMonths))
	}

	periodicInterestRate := MonthlyRate(annualInterestRate)
	power := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	if math.IsInf(power, 1) {
		// The annuity tends to interest-only as (1+r)^n grows without bound.
		return mathutil.Round(principal * periodicInterestRate)
	}
	discountFactor := (power - 1.00) / power
	return mathutil.Round(principal * periodicInterestRate / discountFactor)
}

// CalculateInterestPayment calculates the interest accrued over one month on
// the remaining principal.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * MonthlyRate(annualInterestRate)
}

// normalizeRate treats negative and non-finite rates as interest-free.
func normalizeRate(annualInterestRate float64) float64 {
	if !mathutil.IsFinite(annualInterestRate) || annualInterestRate < 0 {
		return 0
	}
	return annualInterestRate
}

// normalizePrincipal treats negative and non-finite principals as empty loans.
func normalizePrincipal(principal float64) float64 {
	if !mathutil.IsFinite(principal) || principal < 0 {
		return 0
	}
	return mathutil.Round(principal)
}

// PayoffWithPayment amortizes a principal at a fixed monthly payment and
// reports how many months and how much interest it takes to clear it. ok is
// false when the payment does not cover the accruing interest or the balance
// outlives constants.MaxSimulationMonths.
func PayoffWithPayment(principal, annualInterestRate, payment float64) (months int, totalInterest float64, ok bool) {
	balance := normalizePrincipal(principal)
	rate := normalizeRate(annualInterestRate)

	for balance > 0 && months < constants.MaxSimulationMonths {
		months++
		interest := mathutil.Round(CalculateInterestPayment(balance, rate))
		principalPart := mathutil.Round(mathutil.Min(balance, payment-interest))
		if principalPart <= 0 {
			return months, totalInterest, false
		}
		balance = mathutil.Round(balance - principalPart)
		totalInterest = mathutil.Round(totalInterest + interest)
	}

	return months, totalInterest, balance <= 0
}

package output

import (
	"github.com/iwvelando/loan-tracker/pkg/datetime"
	"github.com/iwvelando/loan-tracker/pkg/loans"
)

// Report is the presentation form of a loans.Result, with dates rendered as
// YYYY-MM-DD strings. It is shared by the CLI renderers and the HTTP API.
type Report struct {
	Summary     Summary       `json:"summary"`
	Theoretical []ScheduleRow `json:"theoreticalSchedule"`
	Actual      []ScheduleRow `json:"actualSchedule"`
	Balances    []BalanceRow  `json:"balances"`
	History     []HistoryRow  `json:"history"`
	Unapplied   []ExtraRow    `json:"unappliedExtraPayments,omitempty"`
}

// Summary holds the headline metrics.
type Summary struct {
	AsOf                     string  `json:"asOf"`
	MonthlyPayment           float64 `json:"monthlyPayment"`
	TheoreticalTotalInterest float64 `json:"theoreticalTotalInterest"`
	TheoreticalTotalPaid     float64 `json:"theoreticalTotalPaid"`
	ActualTotalInterest      float64 `json:"actualTotalInterest"`
	ActualTotalPaid          float64 `json:"actualTotalPaid"`
	PaidToDate               float64 `json:"paidToDate"`
	ExtraPaidToDate          float64 `json:"extraPaidToDate"`
	CurrentBalance           float64 `json:"currentBalance"`
	ProjectedPayoffDate      string  `json:"projectedPayoffDate,omitempty"`
	OriginalPayoffDate       string  `json:"originalPayoffDate,omitempty"`
	MonthsSaved              int     `json:"monthsSaved"`
	InterestSaved            float64 `json:"interestSaved"`
	Truncated                bool    `json:"truncated"`
}

// ScheduleRow is one month of a schedule.
type ScheduleRow struct {
	Period           int     `json:"period"`
	Date             string  `json:"date"`
	Payment          float64 `json:"payment"`
	AmountPaid       float64 `json:"amountPaid"`
	Principal        float64 `json:"principal"`
	Interest         float64 `json:"interest"`
	Extra            float64 `json:"extra,omitempty"`
	RemainingBalance float64 `json:"remainingBalance"`
	Projected        bool    `json:"projected"`
}

// HistoryRow is one ledger entry.
type HistoryRow struct {
	Date           string  `json:"date"`
	Kind           string  `json:"kind"`
	Label          string  `json:"label"`
	Amount         float64 `json:"amount"`
	Balance        float64 `json:"balance"`
	Projected      bool    `json:"projected"`
	ExtraPaymentID string  `json:"extraPaymentId,omitempty"`
}

// BalanceRow pairs the theoretical and actual balance for a period.
type BalanceRow struct {
	Period       int      `json:"period"`
	Date         string   `json:"date"`
	Theoretical  *float64 `json:"theoretical"`
	Actual       *float64 `json:"actual"`
	Projected    bool     `json:"projected"`
	ExtraApplied bool     `json:"extraApplied"`
}

// ExtraRow describes an extra payment.
type ExtraRow struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
}

// BuildReport converts an engine result into its presentation form.
func BuildReport(result loans.Result) Report {
	report := Report{
		Summary: Summary{
			AsOf:                     datetime.FormatDate(result.AsOf),
			MonthlyPayment:           result.MonthlyPayment,
			TheoreticalTotalInterest: result.TheoreticalTotalInterest,
			TheoreticalTotalPaid:     result.TheoreticalTotalPaid,
			ActualTotalInterest:      result.ActualTotalInterest,
			ActualTotalPaid:          result.ActualTotalPaid,
			PaidToDate:               result.PaidToDate,
			ExtraPaidToDate:          result.ExtraPaidToDate,
			CurrentBalance:           result.CurrentBalance,
			MonthsSaved:              result.MonthsSaved,
			InterestSaved:            result.InterestSaved,
			Truncated:                result.Truncated,
		},
		Theoretical: scheduleRows(result.TheoreticalSchedule),
		Actual:      scheduleRows(result.ActualSchedule),
		History:     make([]HistoryRow, 0, len(result.History)),
	}
	if !result.ProjectedPayoffDate.IsZero() {
		report.Summary.ProjectedPayoffDate = datetime.FormatDate(result.ProjectedPayoffDate)
	}
	if !result.OriginalPayoffDate.IsZero() {
		report.Summary.OriginalPayoffDate = datetime.FormatDate(result.OriginalPayoffDate)
	}

	for _, event := range result.History {
		report.History = append(report.History, HistoryRow{
			Date:           datetime.FormatDate(event.Date),
			Kind:           string(event.Kind),
			Label:          event.Label,
			Amount:         event.Amount,
			Balance:        event.Balance,
			Projected:      event.Projected,
			ExtraPaymentID: event.ExtraPaymentID,
		})
	}

	points := loans.CompareBalances(result)
	report.Balances = make([]BalanceRow, 0, len(points))
	for _, point := range points {
		report.Balances = append(report.Balances, BalanceRow{
			Period:       point.Period,
			Date:         datetime.FormatDate(point.Date),
			Theoretical:  point.Theoretical,
			Actual:       point.Actual,
			Projected:    point.Projected,
			ExtraApplied: point.ExtraApplied,
		})
	}

	for _, extra := range result.UnappliedExtraPayments {
		report.Unapplied = append(report.Unapplied, ExtraRow{
			ID:     extra.ID,
			Name:   extra.Name,
			Amount: extra.Amount,
			Date:   datetime.FormatDate(extra.Date),
		})
	}

	return report
}

func scheduleRows(entries []loans.PaymentEntry) []ScheduleRow {
	rows := make([]ScheduleRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, ScheduleRow{
			Period:           entry.Period,
			Date:             datetime.FormatDate(entry.Date),
			Payment:          entry.Payment,
			AmountPaid:       entry.AmountPaid,
			Principal:        entry.Principal,
			Interest:         entry.Interest,
			Extra:            entry.Extra,
			RemainingBalance: entry.RemainingBalance,
			Projected:        entry.Projected,
		})
	}
	return rows
}

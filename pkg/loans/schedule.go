package loans

import (
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/datetime"
	"github.com/iwvelando/loan-tracker/pkg/mathutil"
	"go.uber.org/zap"
)

// Engine computes amortization projections. It holds no state between calls
// and is safe for concurrent use.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new engine instance.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Compute runs the engine without logging.
func Compute(input LoanInput, asOf time.Time) Result {
	return NewEngine(nil).Compute(input, asOf)
}

// Compute produces the theoretical schedule, the actual schedule with extra
// payments reconciled into it, the merged history and the summary metrics.
// Everything dated strictly after the calendar day of asOf is projected.
func (e *Engine) Compute(input LoanInput, asOf time.Time) Result {
	principal := normalizePrincipal(input.Principal)
	rate := normalizeRate(input.InterestRate)
	termMonths := TermMonths(input.Years)
	start := datetime.Day(input.StartDate)
	asOf = datetime.Day(asOf)

	monthlyPayment := CalculateMonthlyPayment(principal, rate, termMonths)

	e.logger.Debug("computing amortization",
		zap.String("op", "loans.Compute"),
		zap.Float64("principal", principal),
		zap.Float64("rate", rate),
		zap.Int("termMonths", termMonths),
		zap.Float64("monthlyPayment", monthlyPayment),
		zap.Int("extraPayments", len(input.ExtraPayments)),
	)

	result := Result{
		AsOf:           asOf,
		MonthlyPayment: monthlyPayment,
	}

	result.TheoreticalSchedule, result.TheoreticalTotalInterest = theoreticalSchedule(
		principal, rate, monthlyPayment, termMonths, start, asOf)
	result.TheoreticalTotalPaid = mathutil.Round(principal + result.TheoreticalTotalInterest)

	sim := e.simulate(principal, rate, monthlyPayment, start, asOf, input.ExtraPayments.Sorted())
	result.ActualSchedule = sim.schedule
	result.History = sim.history
	result.ActualTotalInterest = sim.totalInterest
	result.ActualTotalPaid = mathutil.Round(principal + sim.totalInterest)
	result.Truncated = sim.truncated
	result.UnappliedExtraPayments = sim.unapplied

	summarize(&result, principal)
	return result
}

// theoreticalSchedule amortizes the loan at the contractual payment ignoring
// extra payments. The rounded payment can leave a residue of a few cents in
// either direction after the last period; the balance is clamped at zero.
func theoreticalSchedule(principal, rate, payment float64, termMonths int, start, asOf time.Time) ([]PaymentEntry, float64) {
	schedule := make([]PaymentEntry, 0, termMonths)
	balance := principal
	totalInterest := 0.0

	for period := 1; period <= termMonths; period++ {
		interest := mathutil.Round(CalculateInterestPayment(balance, rate))
		principalPart := mathutil.Round(payment - interest)
		balance = mathutil.Max(0, mathutil.Round(balance-principalPart))
		totalInterest = mathutil.Round(totalInterest + interest)

		date := datetime.AddMonths(start, period)
		schedule = append(schedule, PaymentEntry{
			Period:           period,
			Date:             date,
			Payment:          payment,
			AmountPaid:       payment,
			Principal:        principalPart,
			Interest:         interest,
			RemainingBalance: balance,
			Projected:        datetime.IsProjected(date, asOf),
		})
	}

	return schedule, totalInterest
}

type simulation struct {
	schedule      []PaymentEntry
	history       []HistoryEvent
	totalInterest float64
	truncated     bool
	unapplied     []ExtraPayment
}

// simulate walks the loan month by month at the contractual payment. Extra
// payments dated within [start+(i-1) months, start+i months) are applied in
// period i after that period's regular installment.
func (e *Engine) simulate(principal, rate, payment float64, start, asOf time.Time, extras ExtraPayments) simulation {
	var sim simulation
	applied := make([]bool, len(extras))
	balance := principal

	for period := 1; period <= constants.MaxSimulationMonths; period++ {
		if !(balance > 0) {
			break
		}

		windowStart, paymentDate := datetime.MonthWindow(start, period)

		interest := mathutil.Round(CalculateInterestPayment(balance, rate))
		regularPrincipal := mathutil.Round(mathutil.Min(balance, payment-interest))
		balance = mathutil.Round(balance - regularPrincipal)
		sim.totalInterest = mathutil.Round(sim.totalInterest + interest)
		regularAmount := mathutil.Round(regularPrincipal + interest)

		sim.history = append(sim.history, HistoryEvent{
			Date:      paymentDate,
			Amount:    regularAmount,
			Kind:      EventRegular,
			Label:     RegularPaymentLabel,
			Balance:   mathutil.Max(0, balance),
			Projected: datetime.IsProjected(paymentDate, asOf),
		})

		extraPrincipal := 0.0
		for i, extra := range extras {
			date := datetime.Day(extra.Date)
			if !datetime.InWindow(date, windowStart, paymentDate) {
				continue
			}
			if balance <= 0 {
				break
			}
			if extra.Validate() != nil {
				continue
			}

			amount := mathutil.Round(mathutil.Min(balance, extra.Amount))
			if amount < extra.Amount {
				e.logger.Debug("capping extra principal payment to prevent overpayment",
					zap.String("op", "loans.Compute"),
					zap.String("date", datetime.FormatDate(extra.Date)),
					zap.String("extraPayment", extra.Name),
					zap.Float64("requested", extra.Amount),
					zap.Float64("capped_to_balance", amount),
				)
			}
			balance = mathutil.Round(balance - amount)
			extraPrincipal = mathutil.Round(extraPrincipal + amount)
			applied[i] = true

			sim.history = append(sim.history, HistoryEvent{
				Date:           date,
				Amount:         amount,
				Kind:           EventExtra,
				Label:          extra.Name,
				Balance:        mathutil.Max(0, balance),
				Projected:      datetime.IsProjected(date, asOf),
				ExtraPaymentID: extra.ID,
			})
		}

		sim.schedule = append(sim.schedule, PaymentEntry{
			Period:           period,
			Date:             paymentDate,
			Payment:          mathutil.Round(payment + extraPrincipal),
			AmountPaid:       mathutil.Round(regularAmount + extraPrincipal),
			Principal:        mathutil.Round(regularPrincipal + extraPrincipal),
			Interest:         interest,
			RemainingBalance: mathutil.Max(0, balance),
			Extra:            extraPrincipal,
			Projected:        datetime.IsProjected(paymentDate, asOf),
		})
	}

	// NaN never satisfies balance <= 0 and counts as outstanding.
	if !(balance <= 0) {
		sim.truncated = true
		e.logger.Warn(fmt.Sprintf("simulation stopped after %d months with %.2f outstanding",
			constants.MaxSimulationMonths, balance),
			zap.String("op", "loans.Compute"),
		)
	}

	for i, extra := range extras {
		if applied[i] {
			continue
		}
		e.logger.Debug("extra payment not applied",
			zap.String("op", "loans.Compute"),
			zap.String("date", datetime.FormatDate(extra.Date)),
			zap.String("extraPayment", extra.Name),
		)
		sim.unapplied = append(sim.unapplied, extra)
	}

	return sim
}

// summarize orders the history and derives the to-date and savings metrics.
func summarize(result *Result, principal float64) {
	sort.SliceStable(result.History, func(i, j int) bool {
		return result.History[i].Date.Before(result.History[j].Date)
	})

	var paid, extraPaid []float64
	result.CurrentBalance = principal
	for _, event := range result.History {
		if event.Projected {
			continue
		}
		paid = append(paid, event.Amount)
		if event.Kind == EventExtra {
			extraPaid = append(extraPaid, event.Amount)
		}
		result.CurrentBalance = event.Balance
	}
	result.PaidToDate = mathutil.Sum(paid...)
	result.ExtraPaidToDate = mathutil.Sum(extraPaid...)

	if n := len(result.ActualSchedule); n > 0 {
		result.ProjectedPayoffDate = result.ActualSchedule[n-1].Date
	}
	if n := len(result.TheoreticalSchedule); n > 0 {
		result.OriginalPayoffDate = result.TheoreticalSchedule[n-1].Date
	}

	if saved := len(result.TheoreticalSchedule) - len(result.ActualSchedule); saved > 0 {
		result.MonthsSaved = saved
	}
	result.InterestSaved = mathutil.Max(0, mathutil.Round(result.TheoreticalTotalInterest-result.ActualTotalInterest))
}

// CompareBalances pairs the theoretical and actual remaining balances period by
// period, for as many periods as the longer schedule has.
func CompareBalances(result Result) []BalancePoint {
	length := len(result.TheoreticalSchedule)
	if len(result.ActualSchedule) > length {
		length = len(result.ActualSchedule)
	}

	points := make([]BalancePoint, 0, length)
	for i := 0; i < length; i++ {
		point := BalancePoint{Period: i + 1}
		if i < len(result.TheoreticalSchedule) {
			entry := result.TheoreticalSchedule[i]
			balance := entry.RemainingBalance
			point.Theoretical = &balance
			point.Date = entry.Date
		}
		if i < len(result.ActualSchedule) {
			entry := result.ActualSchedule[i]
			balance := entry.RemainingBalance
			point.Actual = &balance
			point.Date = entry.Date
			point.Projected = entry.Projected
			point.ExtraApplied = entry.Extra > 0
		}
		points = append(points, point)
	}
	return points
}

package loans

import "time"

// EventKind distinguishes scheduled installments from out-of-band payments in
// the history ledger.
type EventKind string

const (
	// EventRegular is a contractual monthly installment.
	EventRegular EventKind = "regular"
	// EventExtra is an additional principal payment.
	EventExtra EventKind = "extra"
)

// RegularPaymentLabel is the history label used for contractual installments.
const RegularPaymentLabel = "Monthly payment"

// LoanInput holds the terms of a loan and the extra payments made or planned
// against it.
type LoanInput struct {
	Principal     float64
	InterestRate  float64 // annual, percent
	Years         int
	StartDate     time.Time
	ExtraPayments ExtraPayments
}

// ExtraPayment is a one-time additional principal contribution.
type ExtraPayment struct {
	ID     string
	Name   string
	Amount float64
	Date   time.Time
}

// PaymentEntry is one month of a schedule.
type PaymentEntry struct {
	Period           int
	Date             time.Time
	Payment          float64 // contractual payment plus Extra
	AmountPaid       float64 // cash actually due, smaller than Payment in the closing month
	Principal        float64
	Interest         float64
	RemainingBalance float64
	Extra            float64 // extra principal folded into Payment and Principal
	Projected        bool
}

// HistoryEvent is one ledger entry of the actual schedule.
type HistoryEvent struct {
	Date           time.Time
	Amount         float64
	Kind           EventKind
	Label          string
	Balance        float64
	Projected      bool
	ExtraPaymentID string
}

// Result holds the full amortization projection for a LoanInput.
type Result struct {
	AsOf time.Time

	MonthlyPayment float64

	TheoreticalTotalInterest float64
	TheoreticalTotalPaid     float64
	ActualTotalInterest      float64
	ActualTotalPaid          float64

	PaidToDate      float64
	ExtraPaidToDate float64
	CurrentBalance  float64

	// ProjectedPayoffDate is the zero time when the actual schedule is empty.
	ProjectedPayoffDate time.Time
	OriginalPayoffDate  time.Time
	MonthsSaved         int
	InterestSaved       float64

	// Truncated is set when the simulation hit the month cap with a balance
	// still outstanding.
	Truncated bool

	TheoreticalSchedule    []PaymentEntry
	ActualSchedule         []PaymentEntry
	History                []HistoryEvent
	UnappliedExtraPayments []ExtraPayment
}

// BalancePoint pairs the theoretical and actual balance for one period.
// Either side is nil once its schedule has ended.
type BalancePoint struct {
	Period       int
	Date         time.Time
	Theoretical  *float64
	Actual       *float64
	Projected    bool
	ExtraApplied bool
}

package loans

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-tracker/pkg/datetime"
	"github.com/iwvelando/loan-tracker/pkg/mathutil"
)

var (
	// ErrInvalidExtraPayment is returned when an extra payment has no date or a
	// non-positive amount.
	ErrInvalidExtraPayment = errors.New("invalid extra payment")
	// ErrDuplicateExtraPayment is returned when adding an ID that already exists.
	ErrDuplicateExtraPayment = errors.New("duplicate extra payment id")
	// ErrExtraPaymentNotFound is returned when removing an unknown ID.
	ErrExtraPaymentNotFound = errors.New("extra payment not found")
)

// ExtraPayments is the set of extra payments attached to a loan. Operations
// return a new slice and leave the receiver untouched.
type ExtraPayments []ExtraPayment

// NewExtraPayment builds an extra payment with a fresh ID.
func NewExtraPayment(name string, amount float64, date time.Time) ExtraPayment {
	return ExtraPayment{
		ID:     uuid.NewString(),
		Name:   name,
		Amount: amount,
		Date:   datetime.Day(date),
	}
}

// Validate checks that the payment can be applied to a schedule.
func (p ExtraPayment) Validate() error {
	if !mathutil.IsFinite(p.Amount) || p.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidExtraPayment, p.Amount)
	}
	if p.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidExtraPayment)
	}
	return nil
}

// Add returns the set with payment appended. A missing ID is filled with a
// UUID.
func (p ExtraPayments) Add(payment ExtraPayment) (ExtraPayments, error) {
	if err := payment.Validate(); err != nil {
		return p, err
	}
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	} else if _, exists := p.Find(payment.ID); exists {
		return p, fmt.Errorf("%w: %s", ErrDuplicateExtraPayment, payment.ID)
	}
	payment.Date = datetime.Day(payment.Date)

	out := make(ExtraPayments, 0, len(p)+1)
	out = append(out, p...)
	return append(out, payment), nil
}

// Remove returns the set without the payment identified by id.
func (p ExtraPayments) Remove(id string) (ExtraPayments, error) {
	out := make(ExtraPayments, 0, len(p))
	found := false
	for _, payment := range p {
		if payment.ID == id {
			found = true
			continue
		}
		out = append(out, payment)
	}
	if !found {
		return p, fmt.Errorf("%w: %s", ErrExtraPaymentNotFound, id)
	}
	return out, nil
}

// Find looks up a payment by ID.
func (p ExtraPayments) Find(id string) (ExtraPayment, bool) {
	for _, payment := range p {
		if payment.ID == id {
			return payment, true
		}
	}
	return ExtraPayment{}, false
}

// Sorted returns a copy ordered by date. Payments on the same day keep their
// relative order.
func (p ExtraPayments) Sorted() ExtraPayments {
	out := make(ExtraPayments, len(p))
	copy(out, p)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Total sums the amounts of all payments.
func (p ExtraPayments) Total() float64 {
	amounts := make([]float64, 0, len(p))
	for _, payment := range p {
		amounts = append(amounts, payment.Amount)
	}
	return mathutil.Sum(amounts...)
}

// AddExtraPayment returns a copy of the input with payment added.
func (in LoanInput) AddExtraPayment(payment ExtraPayment) (LoanInput, error) {
	payments, err := in.ExtraPayments.Add(payment)
	if err != nil {
		return in, err
	}
	in.ExtraPayments = payments
	return in, nil
}

// RemoveExtraPayment returns a copy of the input without the payment id.
func (in LoanInput) RemoveExtraPayment(id string) (LoanInput, error) {
	payments, err := in.ExtraPayments.Remove(id)
	if err != nil {
		return in, err
	}
	in.ExtraPayments = payments
	return in, nil
}

package loans

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-tracker/pkg/datetime"
)

func TestNewExtraPayment(t *testing.T) {
	date := time.Date(2024, 5, 1, 13, 45, 0, 0, time.UTC)
	payment := NewExtraPayment("Bonus", 2500, date)

	if _, err := uuid.Parse(payment.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", payment.ID, err)
	}
	if !payment.Date.Equal(datetime.MustParseDate("2024-05-01")) {
		t.Errorf("Date = %v, expected day precision", payment.Date)
	}
}

func TestExtraPaymentsAdd(t *testing.T) {
	var payments ExtraPayments

	tests := []struct {
		name    string
		payment ExtraPayment
		wantErr error
	}{
		{
			name:    "Assigns missing ID",
			payment: ExtraPayment{Name: "Bonus", Amount: 1000, Date: datetime.MustParseDate("2024-05-01")},
		},
		{
			name:    "Keeps given ID",
			payment: extra("fixed", "Tax refund", 500, "2024-06-01"),
		},
		{
			name:    "Rejects duplicate ID",
			payment: extra("fixed", "Again", 500, "2024-07-01"),
			wantErr: ErrDuplicateExtraPayment,
		},
		{
			name:    "Rejects zero amount",
			payment: extra("zero", "Nothing", 0, "2024-07-01"),
			wantErr: ErrInvalidExtraPayment,
		},
		{
			name:    "Rejects missing date",
			payment: ExtraPayment{ID: "nodate", Name: "Undated", Amount: 10},
			wantErr: ErrInvalidExtraPayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(payments)
			updated, err := payments.Add(tt.payment)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Add() error = %v, expected %v", err, tt.wantErr)
				}
				if len(updated) != before {
					t.Errorf("failed Add changed the set size to %d", len(updated))
				}
				return
			}
			if err != nil {
				t.Fatalf("Add() unexpected error: %v", err)
			}
			if len(updated) != before+1 {
				t.Fatalf("Add() size = %d, expected %d", len(updated), before+1)
			}
			if updated[len(updated)-1].ID == "" {
				t.Error("Add() left the ID empty")
			}
			payments = updated
		})
	}
}

func TestExtraPaymentsAddDoesNotAlias(t *testing.T) {
	base := make(ExtraPayments, 1, 4)
	base[0] = extra("a", "A", 1, "2024-01-01")

	first, _ := base.Add(extra("b", "B", 1, "2024-02-01"))
	second, _ := base.Add(extra("c", "C", 1, "2024-03-01"))

	if first[1].ID != "b" || second[1].ID != "c" {
		t.Errorf("Add shared backing storage: %s, %s", first[1].ID, second[1].ID)
	}
}

func TestExtraPaymentsRemove(t *testing.T) {
	payments := ExtraPayments{
		extra("a", "A", 100, "2024-01-01"),
		extra("b", "B", 200, "2024-02-01"),
	}

	updated, err := payments.Remove("a")
	if err != nil {
		t.Fatalf("Remove() unexpected error: %v", err)
	}
	if len(updated) != 1 || updated[0].ID != "b" {
		t.Errorf("Remove() = %+v", updated)
	}
	if len(payments) != 2 {
		t.Error("Remove() mutated the receiver")
	}

	if _, err := payments.Remove("missing"); !errors.Is(err, ErrExtraPaymentNotFound) {
		t.Errorf("Remove(missing) error = %v", err)
	}
}

func TestExtraPaymentsSortedAndTotal(t *testing.T) {
	payments := ExtraPayments{
		extra("c", "C", 0.1, "2024-03-01"),
		extra("a", "A", 0.2, "2024-01-01"),
		extra("b1", "B1", 0.3, "2024-02-01"),
		extra("b2", "B2", 0.4, "2024-02-01"),
	}

	sorted := payments.Sorted()
	expected := []string{"a", "b1", "b2", "c"}
	for i, id := range expected {
		if sorted[i].ID != id {
			t.Errorf("Sorted()[%d] = %s, expected %s", i, sorted[i].ID, id)
		}
	}
	if payments[0].ID != "c" {
		t.Error("Sorted() mutated the receiver")
	}
	if total := payments.Total(); total != 1.0 {
		t.Errorf("Total() = %v, expected 1.0", total)
	}
}

func TestLoanInputExtraPaymentOps(t *testing.T) {
	input := referenceLoan()

	withExtra, err := input.AddExtraPayment(extra("bonus", "Bonus", 50000, "2024-02-15"))
	if err != nil {
		t.Fatalf("AddExtraPayment() error = %v", err)
	}
	if len(input.ExtraPayments) != 0 {
		t.Error("AddExtraPayment() mutated the original input")
	}
	if _, ok := withExtra.ExtraPayments.Find("bonus"); !ok {
		t.Fatal("added payment not found")
	}

	withoutExtra, err := withExtra.RemoveExtraPayment("bonus")
	if err != nil {
		t.Fatalf("RemoveExtraPayment() error = %v", err)
	}
	if len(withoutExtra.ExtraPayments) != 0 {
		t.Errorf("RemoveExtraPayment() left %d payments", len(withoutExtra.ExtraPayments))
	}
	if _, err := withoutExtra.RemoveExtraPayment("bonus"); err == nil {
		t.Error("removing twice should fail")
	}
}

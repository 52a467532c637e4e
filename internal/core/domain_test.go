package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSigned(t *testing.T) {
	income := Transaction{Kind: Income, Amount: Money{Cents: 1500}}
	if got := income.Signed().Cents; got != 1500 {
		t.Fatalf("income Signed() = %d, want 1500", got)
	}
	expense := Transaction{Kind: Expense, Amount: Money{Cents: 1500}}
	if got := expense.Signed().Cents; got != -1500 {
		t.Fatalf("expense Signed() = %d, want -1500", got)
	}
}

func TestAccountValidate(t *testing.T) {
	if err := (Account{Name: "Checking"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Account{Name: "   "}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestCardValidate(t *testing.T) {
	cases := []struct {
		name string
		card Card
		err  error
	}{
		{"valid", Card{Name: "Visa", CreditLimit: Money{Cents: 500000}, DueDay: 10}, nil},
		{"empty name", Card{Name: "", DueDay: 10}, ErrEmptyName},
		{"negative limit", Card{Name: "Visa", CreditLimit: Money{Cents: -1}, DueDay: 10}, ErrNegativeLimit},
		{"due day low", Card{Name: "Visa", DueDay: 0}, ErrInvalidDueDay},
		{"due day high", Card{Name: "Visa", DueDay: 32}, ErrInvalidDueDay},
	}
	for _, tc := range cases {
		if err := tc.card.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.err, err)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Mercado", Kind: CategoryExpense}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Category{Name: "Mercado", Kind: "other"}).Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
	if err := (Category{Name: "", Kind: CategoryBoth}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Date:   NewDate(2025, 3, 10),
		Kind:   Expense,
		Amount: Money{Cents: 1250},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	zeroDate := valid
	zeroDate.Date = Date{}
	if err := zeroDate.Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	badKind := valid
	badKind.Kind = "transfer"
	if err := badKind.Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}

	zeroAmount := valid
	zeroAmount.Amount = Money{}
	if err := zeroAmount.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	longDesc := valid
	for len(longDesc.Description) <= 200 {
		longDesc.Description += "aaaaaaaaaa"
	}
	if err := longDesc.Validate(); !errors.Is(err, ErrDescriptionLength) {
		t.Fatalf("expected ErrDescriptionLength, got %v", err)
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, 1, 31)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2025-01-31"` {
		t.Fatalf("marshal = %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.String() != "2025-01-31" {
		t.Fatalf("round trip = %s", back)
	}

	var zero Date
	if err := json.Unmarshal([]byte("null"), &zero); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !zero.IsZero() {
		t.Fatalf("null should decode to zero date")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-12-05 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2024 || d.Month() != 12 {
		t.Fatalf("parsed %v", d)
	}
	if _, err := ParseDate("05/12/2024"); err == nil {
		t.Fatal("expected error for wrong layout")
	}
}

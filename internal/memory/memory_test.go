package memory

import (
	"context"
	"errors"
	"testing"

	"finapp/internal/core"
	"finapp/internal/ledger"
)

func TestLoadAllRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.InsertAccount(ctx, core.Account{ID: "a1", Name: "Checking"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertTransaction(ctx, core.Transaction{
		ID: "t1", Date: core.NewDate(2025, 1, 1), Kind: core.Income,
		Amount: core.Money{Cents: 100}, AccountID: "a1",
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	data, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(data.Accounts) != 1 || len(data.Transactions) != 1 {
		t.Fatalf("data = %+v", data)
	}
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewWith(ledger.Data{
		Accounts:   []core.Account{{ID: "a1", Name: "Checking"}},
		Categories: []core.Category{{ID: "c1", Name: "Mercado", Kind: core.CategoryExpense, DefaultAccountID: "a1"}},
		Transactions: []core.Transaction{
			{ID: "t1", Date: core.NewDate(2025, 1, 1), Kind: core.Expense, Amount: core.Money{Cents: 100}, AccountID: "a1"},
		},
	})

	if err := s.DeleteAccount(ctx, "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	data, _ := s.LoadAll(ctx)
	if len(data.Accounts) != 0 {
		t.Fatalf("account not deleted")
	}
	if data.Transactions[0].AccountID != "" {
		t.Fatalf("transaction ref not cleared: %+v", data.Transactions[0])
	}
	if data.Categories[0].DefaultAccountID != "" {
		t.Fatalf("category default not cleared: %+v", data.Categories[0])
	}
}

func TestMissingIDs(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.UpdateAccount(ctx, core.Account{ID: "ghost"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update: got %v", err)
	}
	if err := s.DeleteTransaction(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete: got %v", err)
	}
}

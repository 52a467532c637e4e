package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"finapp/internal/core"
	"finapp/internal/ledger"
	"finapp/internal/memory"
)

// seqIDs hands out predictable ids so tests can assert on them.
type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

// recorder captures published events.
type recorder struct {
	events []string
}

func (r *recorder) Publish(_ context.Context, entity, action, id string) error {
	r.events = append(r.events, entity+"."+action)
	return nil
}

func open(t *testing.T, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()
	opts = append([]ledger.Option{ledger.WithIDGenerator(&seqIDs{})}, opts...)
	led, err := ledger.Open(context.Background(), memory.New(), opts...)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	return led
}

func TestAccountBalanceDerivation(t *testing.T) {
	ctx := context.Background()
	led := open(t)

	acc, err := led.CreateAccount(ctx, core.Account{Name: "Checking", InitialBalance: core.Money{Cents: 100000}})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	_, err = led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 1, 10), Kind: core.Expense,
		Amount: core.Money{Cents: 15000}, AccountID: acc.ID,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	balance, err := led.Balance(acc.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cents != 85000 {
		t.Fatalf("balance = %d, want 85000", balance.Cents)
	}

	// Income without an account leaves every balance untouched.
	_, err = led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 1, 11), Kind: core.Income,
		Amount: core.Money{Cents: 99900},
	})
	if err != nil {
		t.Fatalf("create unlinked income: %v", err)
	}
	balance, _ = led.Balance(acc.ID)
	if balance.Cents != 85000 {
		t.Fatalf("balance after unlinked income = %d, want 85000", balance.Cents)
	}
}

func TestCardLimitEnforcement(t *testing.T) {
	ctx := context.Background()
	led := open(t)

	card, err := led.CreateCard(ctx, core.Card{Name: "Visa", CreditLimit: core.Money{Cents: 50000}, DueDay: 10})
	if err != nil {
		t.Fatalf("create card: %v", err)
	}

	_, err = led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 2, 1), Kind: core.Expense,
		Amount: core.Money{Cents: 40000}, CardID: card.ID,
	})
	if err != nil {
		t.Fatalf("first expense: %v", err)
	}

	// 40000 + 20000 > 50000: rejected, nothing recorded.
	_, err = led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 2, 2), Kind: core.Expense,
		Amount: core.Money{Cents: 20000}, CardID: card.ID,
	})
	if !errors.Is(err, core.ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	if n := len(led.Transactions()); n != 1 {
		t.Fatalf("rejected insert must not persist, have %d transactions", n)
	}

	// A refund relieves utilization, making room again.
	_, err = led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 2, 3), Kind: core.Income,
		Amount: core.Money{Cents: 15000}, CardID: card.ID,
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	used, _ := led.CardUsed(card.ID)
	if used.Cents != 25000 {
		t.Fatalf("used = %d, want 25000", used.Cents)
	}
	_, err = led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 2, 4), Kind: core.Expense,
		Amount: core.Money{Cents: 20000}, CardID: card.ID,
	})
	if err != nil {
		t.Fatalf("expense after refund: %v", err)
	}
}

func TestOverdraftEnforcement(t *testing.T) {
	ctx := context.Background()
	led := open(t, ledger.WithOverdraft(core.Money{Cents: 10000}))

	acc, err := led.CreateAccount(ctx, core.Account{Name: "Checking", InitialBalance: core.Money{Cents: 5000}})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	// 5000 - 14000 = -9000, inside the 10000 allowance.
	_, err = led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 3, 1), Kind: core.Expense,
		Amount: core.Money{Cents: 14000}, AccountID: acc.ID,
	})
	if err != nil {
		t.Fatalf("expense within overdraft: %v", err)
	}

	// -9000 - 2000 = -11000, past the allowance.
	_, err = led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 3, 2), Kind: core.Expense,
		Amount: core.Money{Cents: 2000}, AccountID: acc.ID,
	})
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestOverdraftDisabledByDefault(t *testing.T) {
	ctx := context.Background()
	led := open(t)

	acc, _ := led.CreateAccount(ctx, core.Account{Name: "Checking"})
	_, err := led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 3, 1), Kind: core.Expense,
		Amount: core.Money{Cents: 100000}, AccountID: acc.ID,
	})
	if err != nil {
		t.Fatalf("negative balances are allowed by default: %v", err)
	}
	balance, _ := led.Balance(acc.ID)
	if balance.Cents != -100000 {
		t.Fatalf("balance = %d, want -100000", balance.Cents)
	}
}

func TestInvalidReferences(t *testing.T) {
	ctx := context.Background()
	led := open(t)

	_, err := led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 1, 1), Kind: core.Expense,
		Amount: core.Money{Cents: 100}, AccountID: "ghost",
	})
	if !errors.Is(err, core.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference for account, got %v", err)
	}

	_, err = led.CreateCategory(ctx, core.Category{
		Name: "Mercado", Kind: core.CategoryExpense, DefaultCardID: "ghost",
	})
	if !errors.Is(err, core.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference for category default, got %v", err)
	}
}

func TestDeleteAccountClearsReferences(t *testing.T) {
	ctx := context.Background()
	led := open(t)

	acc, _ := led.CreateAccount(ctx, core.Account{Name: "Checking", InitialBalance: core.Money{Cents: 100000}})
	cat, err := led.CreateCategory(ctx, core.Category{
		Name: "Mercado", Kind: core.CategoryExpense, DefaultAccountID: acc.ID,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	tx, err := led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 1, 5), Kind: core.Expense,
		Amount: core.Money{Cents: 4200}, AccountID: acc.ID, CategoryID: cat.ID,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	if err := led.DeleteAccount(ctx, acc.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	if _, err := led.Account(acc.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("account should be gone, got %v", err)
	}
	got, err := led.Transaction(tx.ID)
	if err != nil {
		t.Fatalf("transaction must survive: %v", err)
	}
	if got.AccountID != "" {
		t.Fatalf("transaction account ref not cleared: %q", got.AccountID)
	}
	if got.CategoryID != cat.ID {
		t.Fatalf("category ref must be untouched: %q", got.CategoryID)
	}
	gotCat, _ := led.Category(cat.ID)
	if gotCat.DefaultAccountID != "" {
		t.Fatalf("category default account not cleared: %q", gotCat.DefaultAccountID)
	}
}

func TestDeleteCardClearsReferences(t *testing.T) {
	ctx := context.Background()
	led := open(t)

	card, _ := led.CreateCard(ctx, core.Card{Name: "Visa", CreditLimit: core.Money{Cents: 100000}, DueDay: 5})
	tx, _ := led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 1, 5), Kind: core.Expense,
		Amount: core.Money{Cents: 4200}, CardID: card.ID,
	})

	if err := led.DeleteCard(ctx, card.ID); err != nil {
		t.Fatalf("delete card: %v", err)
	}
	got, _ := led.Transaction(tx.ID)
	if got.CardID != "" {
		t.Fatalf("transaction card ref not cleared: %q", got.CardID)
	}
}

func TestDeleteCategoryClearsReferences(t *testing.T) {
	ctx := context.Background()
	led := open(t)

	cat, _ := led.CreateCategory(ctx, core.Category{Name: "Mercado", Kind: core.CategoryExpense})
	tx, _ := led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 1, 5), Kind: core.Expense,
		Amount: core.Money{Cents: 4200}, CategoryID: cat.ID,
	})

	if err := led.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	got, _ := led.Transaction(tx.ID)
	if got.CategoryID != "" {
		t.Fatalf("transaction category ref not cleared: %q", got.CategoryID)
	}
}

func TestUpdateTransactionExcludesOwnContribution(t *testing.T) {
	ctx := context.Background()
	led := open(t)

	card, _ := led.CreateCard(ctx, core.Card{Name: "Visa", CreditLimit: core.Money{Cents: 50000}, DueDay: 10})
	tx, err := led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 2, 1), Kind: core.Expense,
		Amount: core.Money{Cents: 40000}, CardID: card.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Raising the same row to 50000 fits exactly because its old 40000
	// contribution does not count against itself.
	tx.Amount = core.Money{Cents: 50000}
	if _, err := led.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("update to exact limit: %v", err)
	}

	tx.Amount = core.Money{Cents: 50001}
	if _, err := led.UpdateTransaction(ctx, tx); !errors.Is(err, core.ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	led := open(t)

	if _, err := led.UpdateAccount(ctx, core.Account{ID: "ghost", Name: "x"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update account: got %v", err)
	}
	if err := led.DeleteCard(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete card: got %v", err)
	}
	if err := led.DeleteTransaction(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete transaction: got %v", err)
	}
}

func TestValidationRejectsBeforeStore(t *testing.T) {
	ctx := context.Background()
	led := open(t)

	if _, err := led.CreateAccount(ctx, core.Account{Name: "  "}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := led.CreateCard(ctx, core.Card{Name: "Visa", DueDay: 0}); !errors.Is(err, core.ErrInvalidDueDay) {
		t.Fatalf("expected ErrInvalidDueDay, got %v", err)
	}
	if _, err := led.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2025, 1, 1), Kind: core.Expense,
	}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTransactionsSortedByDate(t *testing.T) {
	ctx := context.Background()
	led := open(t)

	dates := []core.Date{
		core.NewDate(2025, 3, 15),
		core.NewDate(2025, 1, 2),
		core.NewDate(2025, 2, 20),
	}
	for _, d := range dates {
		if _, err := led.CreateTransaction(ctx, core.Transaction{
			Date: d, Kind: core.Income, Amount: core.Money{Cents: 100},
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got := led.Transactions()
	if len(got) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.Before(got[i-1].Date.Time) {
			t.Fatalf("not sorted: %v before %v", got[i].Date, got[i-1].Date)
		}
	}
}

func TestEventsPublished(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	led := open(t, ledger.WithEvents(rec))

	acc, _ := led.CreateAccount(ctx, core.Account{Name: "Checking"})
	acc.Name = "Checking 2"
	_, _ = led.UpdateAccount(ctx, acc)
	_ = led.DeleteAccount(ctx, acc.ID)

	want := []string{"account.created", "account.updated", "account.deleted"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Fatalf("events[%d] = %q, want %q", i, rec.events[i], want[i])
		}
	}
}

func TestOpenLoadsSeedData(t *testing.T) {
	store := memory.NewWith(ledger.Data{
		Accounts: []core.Account{{ID: "a1", Name: "Checking", InitialBalance: core.Money{Cents: 100000}}},
		Transactions: []core.Transaction{
			{ID: "t1", Date: core.NewDate(2025, 1, 2), Kind: core.Expense, Amount: core.Money{Cents: 15000}, AccountID: "a1"},
		},
	})
	led, err := ledger.Open(context.Background(), store)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	balance, err := led.Balance("a1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cents != 85000 {
		t.Fatalf("balance = %d, want 85000", balance.Cents)
	}
}

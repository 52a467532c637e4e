// Package ledger is the domain store: the in-memory entity tables with
// write-through persistence, cascading reference-clearing on deletes, and the
// balance engine that enforces card limits and overdraft at insert time.
//
// Balances and card utilization are derived on read (never stored), so edits
// and deletes can never leave a running total drifting.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"finapp/internal/core"
)

// Ledger holds the live entity tables and writes every mutation through the
// Store before applying it in memory. All operations are serialized by one
// mutex, which makes each check-then-apply sequence a single critical
// section.
type Ledger struct {
	mu     sync.Mutex
	store  Store
	ids    IDGenerator
	events Events

	enforceFunds bool
	overdraft    core.Money

	accounts     map[string]core.Account
	cards        map[string]core.Card
	categories   map[string]core.Category
	transactions map[string]core.Transaction
}

// Option configures a Ledger at Open time.
type Option func(*Ledger)

// WithIDGenerator overrides the default UUID generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(l *Ledger) { l.ids = ids }
}

// WithEvents attaches a mutation event publisher.
func WithEvents(events Events) Option {
	return func(l *Ledger) { l.events = events }
}

// WithOverdraft enables insufficient-funds enforcement for expenses against
// accounts: an expense is rejected when balance - amount < -limit. Pass a
// zero limit to forbid any negative balance.
func WithOverdraft(limit core.Money) Option {
	return func(l *Ledger) {
		l.enforceFunds = true
		l.overdraft = limit
	}
}

// Open loads all entities from the store and returns a ready ledger.
func Open(ctx context.Context, store Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:        store,
		ids:          UUIDGenerator{},
		accounts:     make(map[string]core.Account),
		cards:        make(map[string]core.Card),
		categories:   make(map[string]core.Category),
		transactions: make(map[string]core.Transaction),
	}
	for _, opt := range opts {
		opt(l)
	}

	data, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	for _, a := range data.Accounts {
		l.accounts[a.ID] = a
	}
	for _, c := range data.Cards {
		l.cards[c.ID] = c
	}
	for _, c := range data.Categories {
		l.categories[c.ID] = c
	}
	for _, t := range data.Transactions {
		l.transactions[t.ID] = t
	}

	slog.InfoContext(ctx, "Ledger loaded",
		"accounts", len(l.accounts),
		"cards", len(l.cards),
		"categories", len(l.categories),
		"transactions", len(l.transactions))
	return l, nil
}

// --- Accounts ---

func (l *Ledger) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	a.ID = l.ids.NewID()
	if err := l.store.InsertAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	l.accounts[a.ID] = a
	l.publish(ctx, EntityAccount, ActionCreated, a.ID)
	return a, nil
}

func (l *Ledger) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[a.ID]; !ok {
		return core.Account{}, fmt.Errorf("account %s: %w", a.ID, core.ErrNotFound)
	}
	if err := l.store.UpdateAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	l.accounts[a.ID] = a
	l.publish(ctx, EntityAccount, ActionUpdated, a.ID)
	return a, nil
}

// DeleteAccount clears the account reference on every dependent transaction
// and category default, then removes the account, as one unit. Any
// confirmation prompt belongs to the caller, before this call.
func (l *Ledger) DeleteAccount(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[id]; !ok {
		return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	if err := l.store.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	for txID, t := range l.transactions {
		if t.AccountID == id {
			t.AccountID = ""
			l.transactions[txID] = t
		}
	}
	for catID, c := range l.categories {
		if c.DefaultAccountID == id {
			c.DefaultAccountID = ""
			l.categories[catID] = c
		}
	}
	delete(l.accounts, id)
	l.publish(ctx, EntityAccount, ActionDeleted, id)
	return nil
}

func (l *Ledger) Account(id string) (core.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return a, nil
}

func (l *Ledger) Accounts() []core.Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]core.Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Balance derives the account's current balance: initial balance plus the
// signed amounts of every transaction referencing it.
func (l *Ledger) Balance(id string) (core.Money, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[id]
	if !ok {
		return core.Money{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return core.Money{Cents: a.InitialBalance.Cents + l.accountMovementLocked(id, "")}, nil
}

// --- Cards ---

func (l *Ledger) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c.ID = l.ids.NewID()
	if err := l.store.InsertCard(ctx, c); err != nil {
		return core.Card{}, fmt.Errorf("insert card: %w", err)
	}
	l.cards[c.ID] = c
	l.publish(ctx, EntityCard, ActionCreated, c.ID)
	return c, nil
}

func (l *Ledger) UpdateCard(ctx context.Context, c core.Card) (core.Card, error) {
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.cards[c.ID]; !ok {
		return core.Card{}, fmt.Errorf("card %s: %w", c.ID, core.ErrNotFound)
	}
	if err := l.store.UpdateCard(ctx, c); err != nil {
		return core.Card{}, fmt.Errorf("update card: %w", err)
	}
	l.cards[c.ID] = c
	l.publish(ctx, EntityCard, ActionUpdated, c.ID)
	return c, nil
}

func (l *Ledger) DeleteCard(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.cards[id]; !ok {
		return fmt.Errorf("card %s: %w", id, core.ErrNotFound)
	}
	if err := l.store.DeleteCard(ctx, id); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	for txID, t := range l.transactions {
		if t.CardID == id {
			t.CardID = ""
			l.transactions[txID] = t
		}
	}
	for catID, c := range l.categories {
		if c.DefaultCardID == id {
			c.DefaultCardID = ""
			l.categories[catID] = c
		}
	}
	delete(l.cards, id)
	l.publish(ctx, EntityCard, ActionDeleted, id)
	return nil
}

func (l *Ledger) Card(id string) (core.Card, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.cards[id]
	if !ok {
		return core.Card{}, fmt.Errorf("card %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (l *Ledger) Cards() []core.Card {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]core.Card, 0, len(l.cards))
	for _, c := range l.cards {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CardUsed derives the card's utilization: expenses charge it, incomes
// (refunds, statement adjustments) relieve it.
func (l *Ledger) CardUsed(id string) (core.Money, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.cards[id]; !ok {
		return core.Money{}, fmt.Errorf("card %s: %w", id, core.ErrNotFound)
	}
	return core.Money{Cents: l.cardUsedLocked(id, "")}, nil
}

// --- Categories ---

func (l *Ledger) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkCategoryRefsLocked(c); err != nil {
		return core.Category{}, err
	}
	c.ID = l.ids.NewID()
	if err := l.store.InsertCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	l.categories[c.ID] = c
	l.publish(ctx, EntityCategory, ActionCreated, c.ID)
	return c, nil
}

func (l *Ledger) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.categories[c.ID]; !ok {
		return core.Category{}, fmt.Errorf("category %s: %w", c.ID, core.ErrNotFound)
	}
	if err := l.checkCategoryRefsLocked(c); err != nil {
		return core.Category{}, err
	}
	if err := l.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	l.categories[c.ID] = c
	l.publish(ctx, EntityCategory, ActionUpdated, c.ID)
	return c, nil
}

func (l *Ledger) DeleteCategory(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if err := l.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	for txID, t := range l.transactions {
		if t.CategoryID == id {
			t.CategoryID = ""
			l.transactions[txID] = t
		}
	}
	delete(l.categories, id)
	l.publish(ctx, EntityCategory, ActionDeleted, id)
	return nil
}

func (l *Ledger) Category(id string) (core.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (l *Ledger) Categories() []core.Category {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]core.Category, 0, len(l.categories))
	for _, c := range l.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// --- Transactions ---

func (l *Ledger) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Check-then-apply runs under the lock; a rejection mutates nothing.
	if err := l.checkTransactionLocked(t, ""); err != nil {
		return core.Transaction{}, err
	}
	t.ID = l.ids.NewID()
	if err := l.store.InsertTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	l.transactions[t.ID] = t
	l.publish(ctx, EntityTransaction, ActionCreated, t.ID)
	return t, nil
}

// UpdateTransaction replaces the stored transaction wholesale. Limit and
// funds checks exclude the old row's own contribution, which is the
// inverse-of-old-then-apply-new contract in one step.
func (l *Ledger) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.transactions[t.ID]; !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, core.ErrNotFound)
	}
	if err := l.checkTransactionLocked(t, t.ID); err != nil {
		return core.Transaction{}, err
	}
	if err := l.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	l.transactions[t.ID] = t
	l.publish(ctx, EntityTransaction, ActionUpdated, t.ID)
	return t, nil
}

func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.transactions[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err := l.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	delete(l.transactions, id)
	l.publish(ctx, EntityTransaction, ActionDeleted, id)
	return nil
}

func (l *Ledger) Transaction(id string) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (l *Ledger) Transactions() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]core.Transaction, 0, len(l.transactions))
	for _, t := range l.transactions {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// --- checks ---

func (l *Ledger) checkCategoryRefsLocked(c core.Category) error {
	if c.DefaultAccountID != "" {
		if _, ok := l.accounts[c.DefaultAccountID]; !ok {
			return fmt.Errorf("default account %s: %w", c.DefaultAccountID, core.ErrInvalidReference)
		}
	}
	if c.DefaultCardID != "" {
		if _, ok := l.cards[c.DefaultCardID]; !ok {
			return fmt.Errorf("default card %s: %w", c.DefaultCardID, core.ErrInvalidReference)
		}
	}
	return nil
}

// checkTransactionLocked verifies references and runs the balance engine's
// limit and overdraft checks. excludeID names a transaction whose current
// contribution must not count (the row being updated).
func (l *Ledger) checkTransactionLocked(t core.Transaction, excludeID string) error {
	var card core.Card
	if t.CardID != "" {
		c, ok := l.cards[t.CardID]
		if !ok {
			return fmt.Errorf("card %s: %w", t.CardID, core.ErrInvalidReference)
		}
		card = c
	}
	var account core.Account
	if t.AccountID != "" {
		a, ok := l.accounts[t.AccountID]
		if !ok {
			return fmt.Errorf("account %s: %w", t.AccountID, core.ErrInvalidReference)
		}
		account = a
	}
	if t.CategoryID != "" {
		if _, ok := l.categories[t.CategoryID]; !ok {
			return fmt.Errorf("category %s: %w", t.CategoryID, core.ErrInvalidReference)
		}
	}

	if t.Kind != core.Expense {
		return nil
	}
	if t.CardID != "" {
		used := l.cardUsedLocked(t.CardID, excludeID)
		if used+t.Amount.Cents > card.CreditLimit.Cents {
			return fmt.Errorf("card %s: used %d + %d exceeds limit %d: %w",
				card.Name, used, t.Amount.Cents, card.CreditLimit.Cents, core.ErrLimitExceeded)
		}
	}
	if t.AccountID != "" && l.enforceFunds {
		balance := account.InitialBalance.Cents + l.accountMovementLocked(t.AccountID, excludeID)
		if balance-t.Amount.Cents < -l.overdraft.Cents {
			return fmt.Errorf("account %s: balance %d cannot cover %d: %w",
				account.Name, balance, t.Amount.Cents, core.ErrInsufficientFunds)
		}
	}
	return nil
}

func (l *Ledger) accountMovementLocked(accountID, excludeID string) int64 {
	var sum int64
	for id, t := range l.transactions {
		if id == excludeID || t.AccountID != accountID {
			continue
		}
		sum += t.Signed().Cents
	}
	return sum
}

func (l *Ledger) cardUsedLocked(cardID, excludeID string) int64 {
	var used int64
	for id, t := range l.transactions {
		if id == excludeID || t.CardID != cardID {
			continue
		}
		used -= t.Signed().Cents
	}
	return used
}

func (l *Ledger) publish(ctx context.Context, entity, action, id string) {
	if l.events == nil {
		return
	}
	if err := l.events.Publish(ctx, entity, action, id); err != nil {
		slog.WarnContext(ctx, "Failed to publish ledger event",
			"entity", entity, "action", action, "id", id, "error", err)
	}
}

package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	CategoryIncome  CategoryKind = "income"
	CategoryExpense CategoryKind = "expense"
	CategoryBoth    CategoryKind = "both"
)

// Uncategorized is the sentinel category name used in rollups for
// transactions without a category.
const Uncategorized = "Sem categoria"

type (
	// Kind is the direction of a transaction. The amount is always stored
	// positive; the kind decides the sign used in aggregation.
	Kind string

	// CategoryKind restricts which transaction kinds a category is meant for.
	CategoryKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Account is a bank-like balance source/sink. Its current balance is
	// always derived: InitialBalance plus the signed amounts of every
	// transaction referencing it.
	Account struct {
		ID             string
		Name           string
		InitialBalance Money
	}

	// Card is a credit instrument with a limit and a due day of month.
	// Utilization is derived from the transactions referencing it.
	Card struct {
		ID          string
		Name        string
		CreditLimit Money
		DueDay      int // 1-31
	}

	// Category classifies transactions. The default account/card ids are
	// weak references used as form pre-fill hints, never ownership.
	Category struct {
		ID               string
		Name             string
		Kind             CategoryKind
		DefaultAccountID string
		DefaultCardID    string
	}

	// Transaction is a single recorded income or expense event. Account,
	// card and category references are weak: deleting the referenced
	// entity clears the field here, never the transaction.
	Transaction struct {
		ID          string
		Date        Date
		Kind        Kind
		Amount      Money // always positive; direction comes from Kind
		Description string
		CategoryID  string
		AccountID   string
		CardID      string
	}
)

var (
	// ErrNotFound is returned when an operation targets an id that does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidReference is returned when a transaction or category
	// supplies an account/card/category id that does not exist.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrLimitExceeded is returned when an expense on a card would push
	// utilization past the credit limit.
	ErrLimitExceeded = errors.New("card limit exceeded")

	// ErrInsufficientFunds is returned when an expense on an account would
	// push the balance below the overdraft allowance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrEmptyName         = errors.New("empty name")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidKind       = errors.New("invalid kind")
	ErrInvalidDueDay     = errors.New("due day must be between 1 and 31")
	ErrInvalidDate       = errors.New("date cannot be zero")
	ErrNegativeLimit     = errors.New("credit limit cannot be negative")
	ErrDescriptionLength = errors.New("description too long (max 200 characters)")
)

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

const dateLayout = "2006-01-02"

// ParseDate parses the wire format "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Year returns the calendar year.
func (d Date) Year() int { return d.Time.Year() }

// Month returns the calendar month as 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (k CategoryKind) Valid() bool {
	switch k {
	case CategoryIncome, CategoryExpense, CategoryBoth:
		return true
	}
	return false
}

// Signed returns the transaction amount with the sign implied by its kind:
// +amount for income, -amount for expense. Every rollup uses this uniformly.
func (t Transaction) Signed() Money {
	if t.Kind == Expense {
		return Money{Cents: -t.Amount.Cents}
	}
	return Money{Cents: t.Amount.Cents}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.CreditLimit.Cents < 0 {
		return ErrNegativeLimit
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidDueDay
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLength
	}
	return nil
}

// Package report computes the dashboard aggregates. Every function is a pure
// function over an immutable snapshot: no store access, no errors. Missing
// or empty data yields zeroed aggregates.
//
// The sign convention is uniform across all rollups: income contributes
// +amount, expense contributes -amount.
package report

import (
	"sort"
	"strings"

	"finapp/internal/core"
)

// Snapshot is an immutable view of the ledger taken at aggregation time.
type Snapshot struct {
	Accounts     []core.Account
	Cards        []core.Card
	Categories   []core.Category
	Transactions []core.Transaction
}

// Options narrows the aggregation. The zero value means: all periods, no
// category exclusions.
type Options struct {
	// Year limits period totals and the category rollup to one calendar
	// year. 0 means all years.
	Year int
	// Month limits them to one calendar month (1-12). 0 means all months.
	Month int
	// ExcludedCategories removes transactions of the named categories from
	// the income/expense totals (matched case-insensitively). Typical use:
	// "Transferência", "Ajuste de fatura". Default is no exclusions.
	ExcludedCategories []string
}

// Totals sums income and expense over the selected period, skipping excluded
// categories. Net = Income - Expense.
func Totals(snap Snapshot, opts Options) core.Totals {
	excluded := normalize(opts.ExcludedCategories)
	names := categoryNames(snap)

	var totals core.Totals
	for _, t := range snap.Transactions {
		if !inPeriod(t, opts) {
			continue
		}
		if _, skip := excluded[strings.ToLower(names.of(t))]; skip {
			continue
		}
		switch t.Kind {
		case core.Income:
			totals.Income.Cents += t.Amount.Cents
		case core.Expense:
			totals.Expense.Cents += t.Amount.Cents
		}
	}
	totals.Net.Cents = totals.Income.Cents - totals.Expense.Cents
	return totals
}

// ByAccount derives each account's balance: initial balance plus the signed
// amounts of every transaction referencing it, over the whole ledger.
func ByAccount(snap Snapshot) []core.AccountBalance {
	movement := make(map[string]int64, len(snap.Accounts))
	for _, t := range snap.Transactions {
		if t.AccountID != "" {
			movement[t.AccountID] += t.Signed().Cents
		}
	}

	out := make([]core.AccountBalance, 0, len(snap.Accounts))
	for _, a := range snap.Accounts {
		out = append(out, core.AccountBalance{
			AccountID: a.ID,
			Name:      a.Name,
			Balance:   core.Money{Cents: a.InitialBalance.Cents + movement[a.ID]},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByCard derives each card's utilization: expenses charge the card, incomes
// (refunds, statement adjustments) relieve it.
func ByCard(snap Snapshot) []core.CardUsage {
	used := make(map[string]int64, len(snap.Cards))
	for _, t := range snap.Transactions {
		if t.CardID == "" {
			continue
		}
		// Signed() is income-positive; utilization counts the opposite way.
		used[t.CardID] -= t.Signed().Cents
	}

	out := make([]core.CardUsage, 0, len(snap.Cards))
	for _, c := range snap.Cards {
		u := used[c.ID]
		out = append(out, core.CardUsage{
			CardID:    c.ID,
			Name:      c.Name,
			Limit:     c.CreditLimit,
			Used:      core.Money{Cents: u},
			Remaining: core.Money{Cents: c.CreditLimit.Cents - u},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByCategory sums signed amounts per category name over the selected period.
// Transactions without a category land under core.Uncategorized. Ordered by
// total descending, then name, to match the dashboard chart.
func ByCategory(snap Snapshot, opts Options) []core.CategoryTotal {
	names := categoryNames(snap)

	sums := make(map[string]int64)
	for _, t := range snap.Transactions {
		if !inPeriod(t, opts) {
			continue
		}
		sums[names.of(t)] += t.Signed().Cents
	}

	out := make([]core.CategoryTotal, 0, len(sums))
	for name, cents := range sums {
		out = append(out, core.CategoryTotal{Name: name, Total: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthlySeries buckets signed amounts by calendar month, chronologically.
func MonthlySeries(snap Snapshot) []core.PeriodTotal {
	return series(snap, func(t core.Transaction) (int, int) {
		return t.Date.Year(), t.Date.Month()
	})
}

// YearlySeries buckets signed amounts by calendar year, chronologically.
func YearlySeries(snap Snapshot) []core.PeriodTotal {
	return series(snap, func(t core.Transaction) (int, int) {
		return t.Date.Year(), 0
	})
}

// Build assembles the full dashboard summary in one pass.
func Build(snap Snapshot, opts Options) core.Summary {
	return core.Summary{
		Totals:     Totals(snap, opts),
		ByAccount:  ByAccount(snap),
		ByCard:     ByCard(snap),
		ByCategory: ByCategory(snap, opts),
		Monthly:    MonthlySeries(snap),
		Yearly:     YearlySeries(snap),
	}
}

func series(snap Snapshot, bucket func(core.Transaction) (int, int)) []core.PeriodTotal {
	sums := make(map[[2]int]int64)
	for _, t := range snap.Transactions {
		y, m := bucket(t)
		sums[[2]int{y, m}] += t.Signed().Cents
	}

	out := make([]core.PeriodTotal, 0, len(sums))
	for key, cents := range sums {
		out = append(out, core.PeriodTotal{Year: key[0], Month: key[1], Total: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

func inPeriod(t core.Transaction, opts Options) bool {
	if opts.Year != 0 && t.Date.Year() != opts.Year {
		return false
	}
	if opts.Month != 0 && t.Date.Month() != opts.Month {
		return false
	}
	return true
}

type nameIndex map[string]string

func categoryNames(snap Snapshot) nameIndex {
	idx := make(nameIndex, len(snap.Categories))
	for _, c := range snap.Categories {
		idx[c.ID] = c.Name
	}
	return idx
}

func (idx nameIndex) of(t core.Transaction) string {
	if t.CategoryID == "" {
		return core.Uncategorized
	}
	if name, ok := idx[t.CategoryID]; ok {
		return name
	}
	return core.Uncategorized
}

func normalize(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

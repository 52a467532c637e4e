package core

// Totals are the headline period figures. Income and Expense are both
// positive; Net = Income - Expense.
type Totals struct {
	Income  Money
	Expense Money
	Net     Money
}

// AccountBalance is the derived balance of one account.
type AccountBalance struct {
	AccountID string
	Name      string
	Balance   Money
}

// CardUsage is the derived utilization of one card.
type CardUsage struct {
	CardID    string
	Name      string
	Limit     Money
	Used      Money
	Remaining Money
}

// CategoryTotal is a signed amount aggregated by category name.
type CategoryTotal struct {
	Name  string
	Total Money
}

// PeriodTotal is a signed sum for one calendar bucket. Month is 0 in
// yearly series.
type PeriodTotal struct {
	Year  int
	Month int // 1-12, or 0 for a yearly bucket
	Total Money
}

// Summary is the full dashboard payload.
type Summary struct {
	Totals     Totals
	ByAccount  []AccountBalance
	ByCard     []CardUsage
	ByCategory []CategoryTotal
	Monthly    []PeriodTotal
	Yearly     []PeriodTotal
}

package http

import (
	"net/http"
	"strconv"
	"strings"

	"finapp/internal/core"
	"finapp/internal/report"
)

type moneyValue struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

func toMoneyValue(m core.Money) moneyValue {
	return moneyValue{Cents: m.Cents, Formatted: core.FormatBRL(m)}
}

type dashboardResponse struct {
	Income     moneyValue          `json:"income"`
	Expense    moneyValue          `json:"expense"`
	Net        moneyValue          `json:"net"`
	ByAccount  []accountBalanceDTO `json:"by_account"`
	ByCard     []cardUsageDTO      `json:"by_card"`
	ByCategory []categoryTotalDTO  `json:"by_category"`
	Monthly    []periodTotalDTO    `json:"monthly"`
	Yearly     []periodTotalDTO    `json:"yearly"`
}

type accountBalanceDTO struct {
	AccountID string     `json:"account_id"`
	Name      string     `json:"name"`
	Balance   moneyValue `json:"balance"`
}

type cardUsageDTO struct {
	CardID    string     `json:"card_id"`
	Name      string     `json:"name"`
	Limit     moneyValue `json:"limit"`
	Used      moneyValue `json:"used"`
	Remaining moneyValue `json:"remaining"`
}

type categoryTotalDTO struct {
	Name  string     `json:"name"`
	Total moneyValue `json:"total"`
}

type periodTotalDTO struct {
	Year  int        `json:"year"`
	Month int        `json:"month,omitempty"`
	Total moneyValue `json:"total"`
}

func toDashboardResponse(s core.Summary) dashboardResponse {
	out := dashboardResponse{
		Income:     toMoneyValue(s.Totals.Income),
		Expense:    toMoneyValue(s.Totals.Expense),
		Net:        toMoneyValue(s.Totals.Net),
		ByAccount:  make([]accountBalanceDTO, 0, len(s.ByAccount)),
		ByCard:     make([]cardUsageDTO, 0, len(s.ByCard)),
		ByCategory: make([]categoryTotalDTO, 0, len(s.ByCategory)),
		Monthly:    make([]periodTotalDTO, 0, len(s.Monthly)),
		Yearly:     make([]periodTotalDTO, 0, len(s.Yearly)),
	}
	for _, a := range s.ByAccount {
		out.ByAccount = append(out.ByAccount, accountBalanceDTO{
			AccountID: a.AccountID,
			Name:      a.Name,
			Balance:   toMoneyValue(a.Balance),
		})
	}
	for _, c := range s.ByCard {
		out.ByCard = append(out.ByCard, cardUsageDTO{
			CardID:    c.CardID,
			Name:      c.Name,
			Limit:     toMoneyValue(c.Limit),
			Used:      toMoneyValue(c.Used),
			Remaining: toMoneyValue(c.Remaining),
		})
	}
	for _, c := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryTotalDTO{
			Name:  c.Name,
			Total: toMoneyValue(c.Total),
		})
	}
	for _, p := range s.Monthly {
		out.Monthly = append(out.Monthly, periodTotalDTO{Year: p.Year, Month: p.Month, Total: toMoneyValue(p.Total)})
	}
	for _, p := range s.Yearly {
		out.Yearly = append(out.Yearly, periodTotalDTO{Year: p.Year, Total: toMoneyValue(p.Total)})
	}
	return out
}

// handleDashboard computes the summary for an optional year/month window.
// ?exclude=a,b overrides the configured category exclusions; an explicit
// empty exclude disables them.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := report.Options{ExcludedCategories: s.defaultExclusions}
	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid year: " + v})
			return
		}
		opts.Year = year
	}
	if v := q.Get("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid month: " + v})
			return
		}
		opts.Month = month
	}
	if q.Has("exclude") {
		opts.ExcludedCategories = nil
		for _, name := range strings.Split(q.Get("exclude"), ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.ExcludedCategories = append(opts.ExcludedCategories, name)
			}
		}
	}

	key := r.URL.RawQuery
	if cached, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toDashboardResponse(cached))
		return
	}

	snap := report.Snapshot{
		Accounts:     s.ledger.Accounts(),
		Cards:        s.ledger.Cards(),
		Categories:   s.ledger.Categories(),
		Transactions: s.ledger.Transactions(),
	}
	summary := report.Build(snap, opts)
	s.summaryCache.Set(key, summary)

	writeJSON(w, http.StatusOK, toDashboardResponse(summary))
}

package http

import (
	"net/http"
	"strings"

	"finapp/internal/core"
)

type transactionRequest struct {
	Date        string `json:"date"` // 2006-01-02
	Kind        string `json:"kind"` // income or expense
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	AccountID   string `json:"account_id"`
	CardID      string `json:"card_id"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
	CardID      string `json:"card_id,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Date:        t.Date.String(),
		Kind:        string(t.Kind),
		AmountCents: t.Amount.Cents,
		Amount:      core.FormatBRL(t.Amount),
		Description: t.Description,
		CategoryID:  t.CategoryID,
		AccountID:   t.AccountID,
		CardID:      t.CardID,
	}
}

func (req transactionRequest) toTransaction(id string) (core.Transaction, error) {
	t := core.Transaction{
		ID:          id,
		Kind:        core.Kind(req.Kind),
		Amount:      core.ParseAmount(req.Amount),
		Description: strings.TrimSpace(req.Description),
		CategoryID:  strings.TrimSpace(req.CategoryID),
		AccountID:   strings.TrimSpace(req.AccountID),
		CardID:      strings.TrimSpace(req.CardID),
	}
	if strings.TrimSpace(req.Date) != "" {
		date, err := core.ParseDate(req.Date)
		if err != nil {
			return t, err
		}
		t.Date = date
	}
	return t, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions := s.ledger.Transactions()
	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	t, err := req.toTransaction("")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	created, err := s.ledger.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	t, err := req.toTransaction(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	updated, err := s.ledger.UpdateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"net/http"
	"strings"

	"finapp/internal/core"
)

type accountRequest struct {
	Name string `json:"name"`
	// Localized amount text, e.g. "1.000,00" or "1000.00".
	InitialBalance string `json:"initial_balance"`
}

type accountResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	InitialBalanceCents int64  `json:"initial_balance_cents"`
	InitialBalance      string `json:"initial_balance"`
	BalanceCents        int64  `json:"balance_cents"`
	Balance             string `json:"balance"`
}

func toAccountResponse(a core.Account, balance core.Money) accountResponse {
	return accountResponse{
		ID:                  a.ID,
		Name:                a.Name,
		InitialBalanceCents: a.InitialBalance.Cents,
		InitialBalance:      core.FormatBRL(a.InitialBalance),
		BalanceCents:        balance.Cents,
		Balance:             core.FormatBRL(balance),
	}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := s.ledger.Accounts()
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		balance, err := s.ledger.Balance(a.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out = append(out, toAccountResponse(a, balance))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	a, err := s.ledger.CreateAccount(r.Context(), core.Account{
		Name:           strings.TrimSpace(req.Name),
		InitialBalance: core.ParseAmount(req.InitialBalance),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusCreated, toAccountResponse(a, a.InitialBalance))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	a, err := s.ledger.UpdateAccount(r.Context(), core.Account{
		ID:             r.PathValue("id"),
		Name:           strings.TrimSpace(req.Name),
		InitialBalance: core.ParseAmount(req.InitialBalance),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	balance, err := s.ledger.Balance(a.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusOK, toAccountResponse(a, balance))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteAccount(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

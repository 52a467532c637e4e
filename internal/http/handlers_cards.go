package http

import (
	"net/http"
	"strings"

	"finapp/internal/core"
)

type cardRequest struct {
	Name        string `json:"name"`
	CreditLimit string `json:"credit_limit"`
	DueDay      int    `json:"due_day"`
}

type cardResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	CreditLimitCents int64  `json:"credit_limit_cents"`
	CreditLimit      string `json:"credit_limit"`
	DueDay           int    `json:"due_day"`
	UsedCents        int64  `json:"used_cents"`
	Used             string `json:"used"`
	RemainingCents   int64  `json:"remaining_cents"`
	Remaining        string `json:"remaining"`
}

func toCardResponse(c core.Card, used core.Money) cardResponse {
	remaining := core.Money{Cents: c.CreditLimit.Cents - used.Cents}
	return cardResponse{
		ID:               c.ID,
		Name:             c.Name,
		CreditLimitCents: c.CreditLimit.Cents,
		CreditLimit:      core.FormatBRL(c.CreditLimit),
		DueDay:           c.DueDay,
		UsedCents:        used.Cents,
		Used:             core.FormatBRL(used),
		RemainingCents:   remaining.Cents,
		Remaining:        core.FormatBRL(remaining),
	}
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards := s.ledger.Cards()
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		used, err := s.ledger.CardUsed(c.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out = append(out, toCardResponse(c, used))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	c, err := s.ledger.CreateCard(r.Context(), core.Card{
		Name:        strings.TrimSpace(req.Name),
		CreditLimit: core.ParseAmount(req.CreditLimit),
		DueDay:      req.DueDay,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusCreated, toCardResponse(c, core.Money{}))
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	c, err := s.ledger.UpdateCard(r.Context(), core.Card{
		ID:          r.PathValue("id"),
		Name:        strings.TrimSpace(req.Name),
		CreditLimit: core.ParseAmount(req.CreditLimit),
		DueDay:      req.DueDay,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	used, err := s.ledger.CardUsed(c.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusOK, toCardResponse(c, used))
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCard(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"net/http"
	"strings"

	"finapp/internal/core"
)

type categoryRequest struct {
	Name             string `json:"name"`
	Kind             string `json:"kind"` // income, expense or both
	DefaultAccountID string `json:"default_account_id"`
	DefaultCardID    string `json:"default_card_id"`
}

type categoryResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Kind             string `json:"kind"`
	DefaultAccountID string `json:"default_account_id,omitempty"`
	DefaultCardID    string `json:"default_card_id,omitempty"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:               c.ID,
		Name:             c.Name,
		Kind:             string(c.Kind),
		DefaultAccountID: c.DefaultAccountID,
		DefaultCardID:    c.DefaultCardID,
	}
}

func (r categoryRequest) toCategory(id string) core.Category {
	return core.Category{
		ID:               id,
		Name:             strings.TrimSpace(r.Name),
		Kind:             core.CategoryKind(r.Kind),
		DefaultAccountID: strings.TrimSpace(r.DefaultAccountID),
		DefaultCardID:    strings.TrimSpace(r.DefaultCardID),
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories := s.ledger.Categories()
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	c, err := s.ledger.CreateCategory(r.Context(), req.toCategory(""))
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusCreated, toCategoryResponse(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	c, err := s.ledger.UpdateCategory(r.Context(), req.toCategory(r.PathValue("id")))
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

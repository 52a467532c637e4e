package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"finapp/internal/core"
	applog "finapp/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP statuses: 404 for
// missing ids, 409 for balance-engine rejections, 422 for validation and
// bad references, 500 for store failures.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrLimitExceeded), errors.Is(err, core.ErrInsufficientFunds):
		status = http.StatusConflict
	case errors.Is(err, core.ErrInvalidReference), isValidationError(err):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		applog.From(r.Context()).ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrEmptyName,
		core.ErrInvalidAmount,
		core.ErrInvalidKind,
		core.ErrInvalidDueDay,
		core.ErrInvalidDate,
		core.ErrNegativeLimit,
		core.ErrDescriptionLength,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// decodeBody unmarshals a JSON request body with a sane size cap.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse JSON body: %w", err)
	}
	return nil
}

// Package handler exposes the engine over a JSON REST API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kjelstad/chorebank/internal/engine"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps engine sentinel errors onto HTTP statuses. Missing
// entities are 404, bad input is 400, and rule violations (lost races,
// inactive items, empty wallets, bad transitions) are 409.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrValidation):
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrAlreadyClaimed),
		errors.Is(err, engine.ErrInactive),
		errors.Is(err, engine.ErrInsufficientPoints):
		writeErrorMsg(w, http.StatusConflict, err.Error())
	default:
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

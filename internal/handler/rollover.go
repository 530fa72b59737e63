package handler

import (
	"net/http"
	"time"

	"github.com/kjelstad/chorebank/internal/engine"
)

// RolloverHandler triggers the daily rollover on demand, the same pass the
// scheduler runs at midnight.
type RolloverHandler struct {
	store *engine.Store
}

// NewRolloverHandler creates a rollover handler.
func NewRolloverHandler(store *engine.Store) *RolloverHandler {
	return &RolloverHandler{store: store}
}

func (h *RolloverHandler) Run(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Rollover(time.Now()); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

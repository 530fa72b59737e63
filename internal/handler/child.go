package handler

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/kjelstad/chorebank/internal/engine"
	"github.com/kjelstad/chorebank/internal/model"
)

// ChildHandler serves child records, point balances, and PIN management.
type ChildHandler struct {
	store *engine.Store
}

// NewChildHandler creates a child handler.
func NewChildHandler(store *engine.Store) *ChildHandler {
	return &ChildHandler{store: store}
}

func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	child, err := h.store.AddChild(req.Name)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, child)
}

func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	children := h.store.Children()
	if children == nil {
		children = []model.Child{}
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	child, err := h.store.Child(r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	if err := h.store.RenameChild(id, req.Name); err != nil {
		writeEngineError(w, err)
		return
	}
	child, err := h.store.Child(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveChild(r.PathValue("id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddPoints applies an administrative balance adjustment.
func (h *ChildHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Points int `json:"points"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	if err := h.store.AddPoints(id, req.Points); err != nil {
		writeEngineError(w, err)
		return
	}
	child, err := h.store.Child(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, child)
}

// ResetPoints zeroes one child's balance, or every balance when the body
// omits the child id.
func (h *ChildHandler) ResetPoints(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChildID string `json:"child_id"`
	}
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}

	if err := h.store.ResetPoints(req.ChildID); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPIN hashes and stores a child's PIN. An empty pin clears it.
func (h *ChildHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	hash := ""
	if req.PIN != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
		if err != nil {
			writeErrorMsg(w, http.StatusInternalServerError, "failed to hash pin")
			return
		}
		hash = string(hashed)
	}

	if err := h.store.SetChildPIN(r.PathValue("id"), hash); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VerifyPIN checks a submitted PIN against the stored hash.
func (h *ChildHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	child, err := h.store.Child(r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	valid := !child.HasPIN()
	if child.HasPIN() {
		valid = bcrypt.CompareHashAndPassword([]byte(child.PINHash), []byte(req.PIN)) == nil
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

package handler

import (
	"net/http"

	"github.com/kjelstad/chorebank/internal/engine"
	"github.com/kjelstad/chorebank/internal/model"
)

// CategoryHandler serves task categories.
type CategoryHandler struct {
	store *engine.Store
}

// NewCategoryHandler creates a category handler.
func NewCategoryHandler(store *engine.Store) *CategoryHandler {
	return &CategoryHandler{store: store}
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.store.AddCategory(req.Name, req.Color)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories := h.store.Categories()
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, err := h.store.Category(r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	if req.Name != nil {
		if err := h.store.RenameCategory(id, *req.Name); err != nil {
			writeEngineError(w, err)
			return
		}
	}
	if req.Color != nil {
		if err := h.store.SetCategoryColor(id, *req.Color); err != nil {
			writeEngineError(w, err)
			return
		}
	}

	category, err := h.store.Category(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// SetColor changes just the category color.
func (h *CategoryHandler) SetColor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Color string `json:"color"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	if err := h.store.SetCategoryColor(id, req.Color); err != nil {
		writeEngineError(w, err)
		return
	}
	category, err := h.store.Category(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCategory(r.PathValue("id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

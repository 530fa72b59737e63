package handler

import (
	"encoding/json"
	"net/http"

	"github.com/kjelstad/chorebank/internal/engine"
	"github.com/kjelstad/chorebank/internal/model"
)

// ShopHandler serves shop items, purchases, and purchase history.
type ShopHandler struct {
	store *engine.Store
}

// NewShopHandler creates a shop handler.
func NewShopHandler(store *engine.Store) *ShopHandler {
	return &ShopHandler{store: store}
}

type shopItemRequest struct {
	Title   string          `json:"title"`
	Price   int             `json:"price"`
	Icon    string          `json:"icon"`
	Image   string          `json:"image"`
	Active  *bool           `json:"active"`
	Actions json.RawMessage `json:"actions"`
}

func (h *ShopHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req shopItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	item, err := h.store.AddShopItem(engine.ShopItemDraft{
		Title:   req.Title,
		Price:   req.Price,
		Icon:    req.Icon,
		Image:   req.Image,
		Active:  active,
		Actions: req.Actions,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ShopHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.store.ShopItems()
	if items == nil {
		items = []model.ShopItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ShopHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.ShopItem(r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ShopHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   *string         `json:"title"`
		Price   *int            `json:"price"`
		Icon    *string         `json:"icon"`
		Image   *string         `json:"image"`
		Active  *bool           `json:"active"`
		Actions json.RawMessage `json:"actions"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.store.UpdateShopItem(r.PathValue("id"), engine.ShopItemUpdate{
		Title:   req.Title,
		Price:   req.Price,
		Icon:    req.Icon,
		Image:   req.Image,
		Active:  req.Active,
		Actions: req.Actions,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ShopHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteShopItem(r.PathValue("id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Buy debits the child and records the purchase atomically.
func (h *ShopHandler) Buy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChildID string `json:"child_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	purchase, err := h.store.Buy(req.ChildID, r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, purchase)
}

// History lists purchases, optionally filtered with ?child_id=.
func (h *ShopHandler) History(w http.ResponseWriter, r *http.Request) {
	purchases := h.store.PurchaseHistory(r.URL.Query().Get("child_id"))
	if purchases == nil {
		purchases = []model.Purchase{}
	}
	writeJSON(w, http.StatusOK, purchases)
}

// ClearHistory deletes purchase records, optionally for one child only. The
// child may come from a JSON body or a ?child_id= query parameter.
func (h *ShopHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChildID string `json:"child_id"`
	}
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}
	if req.ChildID == "" {
		req.ChildID = r.URL.Query().Get("child_id")
	}

	if err := h.store.ClearHistory(req.ChildID); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

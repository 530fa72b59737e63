package handler

import (
	"net/http"

	"github.com/kjelstad/chorebank/internal/model"
	"github.com/kjelstad/chorebank/internal/persist"
)

// PushHandler manages browser push subscriptions.
type PushHandler struct {
	subs           *persist.PushStore
	vapidPublicKey string
}

// NewPushHandler creates a push handler. vapidPublicKey may be empty when
// push is not configured; subscribe requests then fail with 503.
func NewPushHandler(subs *persist.PushStore, vapidPublicKey string) *PushHandler {
	return &PushHandler{subs: subs, vapidPublicKey: vapidPublicKey}
}

// VAPIDKey returns the public key clients need to subscribe.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.vapidPublicKey == "" {
		writeErrorMsg(w, http.StatusServiceUnavailable, "push notifications not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.vapidPublicKey})
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe registers or refreshes a push subscription.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if h.vapidPublicKey == "" {
		writeErrorMsg(w, http.StatusServiceUnavailable, "push notifications not configured")
		return
	}

	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeErrorMsg(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	sub, err := h.subs.SaveSubscription(req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// List returns the registered push subscriptions.
func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subs.Subscriptions()
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// Unsubscribe removes a push subscription by endpoint.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" {
		writeErrorMsg(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	if err := h.subs.DeleteByEndpoint(req.Endpoint); err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

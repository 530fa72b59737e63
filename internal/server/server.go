// Package server wires the handlers into an HTTP router.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjelstad/chorebank/internal/engine"
	"github.com/kjelstad/chorebank/internal/handler"
	"github.com/kjelstad/chorebank/internal/middleware"
	"github.com/kjelstad/chorebank/internal/persist"
	ws "github.com/kjelstad/chorebank/internal/websocket"
)

// Server holds the HTTP surface of the application.
type Server struct {
	hub       *ws.Hub
	childH    *handler.ChildHandler
	taskH     *handler.TaskHandler
	categoryH *handler.CategoryHandler
	shopH     *handler.ShopHandler
	pushH     *handler.PushHandler
	rolloverH *handler.RolloverHandler
	logger    *slog.Logger
}

// New wires the engine and push store into handlers.
func New(store *engine.Store, hub *ws.Hub, pushStore *persist.PushStore, vapidPublicKey string, logger *slog.Logger) *Server {
	return &Server{
		hub:       hub,
		childH:    handler.NewChildHandler(store),
		taskH:     handler.NewTaskHandler(store),
		categoryH: handler.NewCategoryHandler(store),
		shopH:     handler.NewShopHandler(store),
		pushH:     handler.NewPushHandler(pushStore, vapidPublicKey),
		rolloverH: handler.NewRolloverHandler(store),
		logger:    logger,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Children
	mux.HandleFunc("POST /api/children", s.childH.Create)
	mux.HandleFunc("GET /api/children", s.childH.List)
	mux.HandleFunc("GET /api/children/{id}", s.childH.Get)
	mux.HandleFunc("PUT /api/children/{id}", s.childH.Update)
	mux.HandleFunc("DELETE /api/children/{id}", s.childH.Delete)
	mux.HandleFunc("POST /api/children/{id}/points", s.childH.AddPoints)
	mux.HandleFunc("POST /api/children/reset-points", s.childH.ResetPoints)
	mux.HandleFunc("POST /api/children/{id}/pin", s.childH.SetPIN)
	mux.HandleFunc("POST /api/children/{id}/pin/verify", s.childH.VerifyPIN)

	// Tasks
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/assign", s.taskH.Assign)
	mux.HandleFunc("POST /api/tasks/{id}/status", s.taskH.SetStatus)
	mux.HandleFunc("POST /api/tasks/{id}/approve", s.taskH.Approve)
	mux.HandleFunc("POST /api/tasks/{id}/approve-all", s.taskH.ApproveAll)
	mux.HandleFunc("POST /api/tasks/{id}/bonus/complete", s.taskH.CompleteBonus)
	mux.HandleFunc("POST /api/tasks/{id}/bonus/approve", s.taskH.ApproveBonus)
	mux.HandleFunc("PUT /api/tasks/{id}/repeat", s.taskH.SetRepeat)
	mux.HandleFunc("PUT /api/tasks/{id}/icon", s.taskH.SetIcon)

	// Categories
	mux.HandleFunc("POST /api/categories", s.categoryH.Create)
	mux.HandleFunc("GET /api/categories", s.categoryH.List)
	mux.HandleFunc("GET /api/categories/{id}", s.categoryH.Get)
	mux.HandleFunc("PUT /api/categories/{id}", s.categoryH.Update)
	mux.HandleFunc("PUT /api/categories/{id}/color", s.categoryH.SetColor)
	mux.HandleFunc("DELETE /api/categories/{id}", s.categoryH.Delete)

	// Shop
	mux.HandleFunc("POST /api/shop/items", s.shopH.Create)
	mux.HandleFunc("GET /api/shop/items", s.shopH.List)
	mux.HandleFunc("GET /api/shop/items/{id}", s.shopH.Get)
	mux.HandleFunc("PUT /api/shop/items/{id}", s.shopH.Update)
	mux.HandleFunc("DELETE /api/shop/items/{id}", s.shopH.Delete)
	mux.HandleFunc("POST /api/shop/items/{id}/buy", s.shopH.Buy)
	mux.HandleFunc("GET /api/shop/history", s.shopH.History)
	mux.HandleFunc("DELETE /api/shop/history", s.shopH.ClearHistory)
	mux.HandleFunc("POST /api/shop/history/clear", s.shopH.ClearHistory)

	// Push subscriptions
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.List)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)

	// Manual rollover trigger
	mux.HandleFunc("POST /api/rollover", s.rolloverH.Run)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

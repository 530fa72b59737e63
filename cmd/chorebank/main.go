package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kjelstad/chorebank/internal/backup"
	"github.com/kjelstad/chorebank/internal/engine"
	"github.com/kjelstad/chorebank/internal/logging"
	"github.com/kjelstad/chorebank/internal/notify"
	"github.com/kjelstad/chorebank/internal/persist"
	"github.com/kjelstad/chorebank/internal/push"
	"github.com/kjelstad/chorebank/internal/schedule"
	"github.com/kjelstad/chorebank/internal/server"
	ws "github.com/kjelstad/chorebank/internal/websocket"
)

func main() {
	logger := logging.Setup(os.Getenv("CHOREBANK_LOG_LEVEL"), os.Getenv("CHOREBANK_LOG_FORMAT"))

	port := envOr("CHOREBANK_PORT", "8080")
	dbPath := envOr("CHOREBANK_DB_PATH", "chorebank.db")

	db, err := persist.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	snapshots := persist.NewSnapshotStore(db)
	pushStore := persist.NewPushStore(db)

	hub := ws.NewHub(logger.With("component", "websocket"))

	vapidPublic := os.Getenv("CHOREBANK_VAPID_PUBLIC_KEY")
	vapidPrivate := os.Getenv("CHOREBANK_VAPID_PRIVATE_KEY")
	var sender notify.Sender
	if vapidPublic != "" && vapidPrivate != "" {
		sender = push.NewService(vapidPublic, vapidPrivate)
	} else {
		logger.Info("web push disabled, VAPID keys not set")
	}

	dispatcher := notify.New(hub, sender, pushStore, logger)

	store := engine.New(snapshots, dispatcher, logger.With("component", "engine"))
	if err := store.Load(); err != nil {
		logger.Error("load state", "error", err)
		os.Exit(1)
	}

	scheduler := schedule.New(store, logger.With("component", "schedule"))
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	backupMgr := backup.NewManager(backup.Config{
		Endpoint:  os.Getenv("CHOREBANK_S3_ENDPOINT"),
		Bucket:    os.Getenv("CHOREBANK_S3_BUCKET"),
		Region:    envOr("CHOREBANK_S3_REGION", "us-east-1"),
		AccessKey: os.Getenv("CHOREBANK_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("CHOREBANK_S3_SECRET_KEY"),
		Prefix:    os.Getenv("CHOREBANK_S3_PREFIX"),
		DBPath:    dbPath,
	}, db, logger)
	backupMgr.Start(context.Background())
	defer backupMgr.Stop()

	srv := server.New(store, hub, pushStore, vapidPublic, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Chorebank running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

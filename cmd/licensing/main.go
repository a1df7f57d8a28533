package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emersoneims/generator-oracle/internal/email"
	"github.com/emersoneims/generator-oracle/internal/licensing/database"
	"github.com/emersoneims/generator-oracle/internal/licensing/server"
	"github.com/emersoneims/generator-oracle/internal/logging"
)

func main() {
	logger := logging.Setup(os.Getenv("LICENSING_LOG_LEVEL"))

	port := os.Getenv("LICENSING_PORT")
	if port == "" {
		port = "8090"
	}

	dbPath := os.Getenv("LICENSING_DB_PATH")
	if dbPath == "" {
		dbPath = "licensing.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("LICENSING_POSTMARK_TOKEN"),
		os.Getenv("LICENSING_FROM_EMAIL"),
	)

	cfg := server.Config{
		AdminTokenHash: os.Getenv("LICENSING_ADMIN_TOKEN_HASH"),
		EmailClient:    emailClient,
	}

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("licensing service starting", "addr", ":"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emersoneims/generator-oracle/internal/database"
	"github.com/emersoneims/generator-oracle/internal/license"
	"github.com/emersoneims/generator-oracle/internal/logging"
	"github.com/emersoneims/generator-oracle/internal/server"
	"github.com/emersoneims/generator-oracle/internal/websocket"
)

func main() {
	logger := logging.Setup(os.Getenv("ORACLE_LOG_LEVEL"))

	port := os.Getenv("ORACLE_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("ORACLE_DB_PATH")
	if dbPath == "" {
		dbPath = "oracle.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		DBPath:          dbPath,
		LicensingURL:    os.Getenv("ORACLE_LICENSING_URL"),
		VAPIDPublicKey:  os.Getenv("ORACLE_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("ORACLE_VAPID_PRIVATE_KEY"),
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

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Revalidate with the licensing server on a schedule and tell open
	// kiosk clients when the decision changes.
	hub := srv.Hub()
	go srv.LicenseService().Run(bgCtx, license.HeartbeatInterval, func(status license.StatusResult) {
		statusStr := ""
		if status.License != nil {
			statusStr = string(status.License.Status)
		}
		hub.Broadcast(websocket.LicenseStatusMessage(status.IsLicensed, statusStr, status.Reason))
	})

	srv.BackupManager().Start(bgCtx)
	srv.PushScheduler().Start(bgCtx)

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-bgCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("generator oracle companion starting", "addr", ":"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	bgCancel()
	srv.BackupManager().Stop()
	srv.PushScheduler().Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/emersoneims/generator-oracle/internal/backup"
	"github.com/emersoneims/generator-oracle/internal/device"
	"github.com/emersoneims/generator-oracle/internal/handler"
	"github.com/emersoneims/generator-oracle/internal/license"
	"github.com/emersoneims/generator-oracle/internal/middleware"
	"github.com/emersoneims/generator-oracle/internal/push"
	"github.com/emersoneims/generator-oracle/internal/store"
	ws "github.com/emersoneims/generator-oracle/internal/websocket"
)

type Config struct {
	// Base URL of the business licensing server. Empty means offline-only:
	// activations are stored as pending until connectivity returns.
	LicensingURL string

	// DBPath is the on-disk database file, needed for backup snapshots.
	DBPath string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

// Server wires the companion's stores, the license service, and the HTTP
// surface together. Everything under /api/oracle/ sits behind the license
// gate; the license endpoints themselves stay reachable so a locked
// device can still activate.
type Server struct {
	db     *sql.DB
	cfg    Config
	logger *slog.Logger

	licenseStore  *store.LicenseStore
	settingsStore *store.SettingsStore
	historyStore  *store.HistoryStore
	feedbackStore *store.FeedbackStore
	pushStore     *store.PushStore

	licenseService *license.Service
	hub            *ws.Hub
	backupManager  *backup.Manager
	pushService    *push.Service
	pushScheduler  *push.Scheduler
	rateLimiter    *middleware.RateLimiter

	licenseHandler  *handler.LicenseHandler
	purchaseHandler *handler.PurchaseHandler
	historyHandler  *handler.HistoryHandler
	feedbackHandler *handler.FeedbackHandler
	settingsHandler *handler.SettingsHandler
	backupHandler   *handler.BackupHandler
	pushHandler     *handler.PushHandler
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	licenseStore := store.NewLicenseStore(db)
	settingsStore := store.NewSettingsStore(db)
	historyStore := store.NewHistoryStore(db)
	feedbackStore := store.NewFeedbackStore(db)
	pushStore := store.NewPushStore(db)

	var client *license.Client
	if cfg.LicensingURL != "" {
		client = license.NewClient(license.ClientConfig{BaseURL: cfg.LicensingURL})
	}

	licenseService := license.NewService(
		licenseStore,
		client,
		device.Fingerprint(),
		logger.With("component", "license"),
	)

	hub := ws.NewHub(logger.With("component", "websocket"))

	backupCfg := backup.Config{DBPath: cfg.DBPath}
	if bs, err := settingsStore.GetBackupSettings(); err == nil {
		backupCfg.S3 = backup.S3Config{
			Endpoint:  bs["s3_endpoint"],
			Bucket:    bs["s3_bucket"],
			Region:    bs["s3_region"],
			AccessKey: bs["s3_access_key"],
			SecretKey: bs["s3_secret_key"],
		}
	}
	backupManager := backup.NewManager(backupCfg, db, settingsStore, logger.With("component", "backup"))

	pushService := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	pushScheduler := push.NewScheduler(pushService, licenseService, pushStore, settingsStore, logger.With("component", "push"))

	s := &Server{
		db:             db,
		cfg:            cfg,
		logger:         logger,
		licenseStore:   licenseStore,
		settingsStore:  settingsStore,
		historyStore:   historyStore,
		feedbackStore:  feedbackStore,
		pushStore:      pushStore,
		licenseService: licenseService,
		hub:            hub,
		backupManager:  backupManager,
		pushService:    pushService,
		pushScheduler:  pushScheduler,
		rateLimiter:    middleware.NewRateLimiter(),
	}

	s.licenseHandler = handler.NewLicenseHandler(licenseService, hub, logger.With("component", "license-api"))
	s.purchaseHandler = handler.NewPurchaseHandler(licenseService)
	s.historyHandler = handler.NewHistoryHandler(historyStore, hub, logger.With("component", "history"))
	s.feedbackHandler = handler.NewFeedbackHandler(feedbackStore, logger.With("component", "feedback"))
	s.settingsHandler = handler.NewSettingsHandler(settingsStore, backupManager, hub)
	s.backupHandler = handler.NewBackupHandler(backupManager, settingsStore, logger.With("component", "backup-api"))
	s.pushHandler = handler.NewPushHandler(pushStore, pushService, logger.With("component", "push-api"))

	return s
}

// LicenseService exposes the service for the heartbeat loop in main.
func (s *Server) LicenseService() *license.Service {
	return s.licenseService
}

// Hub returns the websocket hub so main can run and broadcast on it.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// BackupManager returns the backup manager for lifecycle control.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the expiry-warning scheduler for lifecycle control.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthCheck)

	// License endpoints stay outside the gate: an unlicensed kiosk must be
	// able to validate keys, activate, and poll status.
	rateLimited := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	mux.HandleFunc("POST /api/license/key", s.licenseHandler.ValidateKey)
	mux.Handle("POST /api/license/activate", rateLimited(http.HandlerFunc(s.licenseHandler.Activate)))
	mux.HandleFunc("GET /api/license/status", s.licenseHandler.Status)
	mux.HandleFunc("GET /api/license/info", s.licenseHandler.Info)
	mux.HandleFunc("POST /api/license/heartbeat", s.licenseHandler.Heartbeat)
	mux.HandleFunc("DELETE /api/license", s.licenseHandler.Remove)

	mux.HandleFunc("GET /api/purchase", s.purchaseHandler.Get)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	// Everything the technician actually pays for.
	gated := http.NewServeMux()
	gated.HandleFunc("POST /api/oracle/history", s.historyHandler.Append)
	gated.HandleFunc("GET /api/oracle/history", s.historyHandler.List)
	gated.HandleFunc("GET /api/oracle/history/{id}", s.historyHandler.Get)
	gated.HandleFunc("POST /api/oracle/history/{id}/resolve", s.historyHandler.Resolve)

	gated.HandleFunc("POST /api/oracle/feedback", s.feedbackHandler.Submit)
	gated.HandleFunc("GET /api/oracle/feedback/pending", s.feedbackHandler.ListPending)

	gated.HandleFunc("GET /api/oracle/settings", s.settingsHandler.Get)
	gated.HandleFunc("PUT /api/oracle/settings", s.settingsHandler.Update)

	gated.HandleFunc("GET /api/oracle/backup/status", s.backupHandler.Status)
	gated.HandleFunc("POST /api/oracle/backup/passphrase", s.backupHandler.SetPassphrase)
	gated.HandleFunc("POST /api/oracle/backup/run", s.backupHandler.Run)
	gated.HandleFunc("POST /api/oracle/backup/restore", s.backupHandler.Restore)

	gated.HandleFunc("POST /api/oracle/push/subscribe", s.pushHandler.Subscribe)
	gated.HandleFunc("GET /api/oracle/push/subscriptions", s.pushHandler.ListSubscriptions)
	gated.HandleFunc("DELETE /api/oracle/push/subscriptions/{id}", s.pushHandler.Unsubscribe)
	gated.HandleFunc("GET /api/oracle/push/vapid-key", s.pushHandler.GetVAPIDKey)
	gated.HandleFunc("POST /api/oracle/push/test", s.pushHandler.TestNotification)

	mux.Handle("/api/oracle/", middleware.RequireLicense(s.licenseService)(gated))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

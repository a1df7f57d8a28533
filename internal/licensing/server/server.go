package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/emersoneims/generator-oracle/internal/email"
	"github.com/emersoneims/generator-oracle/internal/licensing/handler"
	"github.com/emersoneims/generator-oracle/internal/licensing/middleware"
	"github.com/emersoneims/generator-oracle/internal/licensing/store"
	sharedmw "github.com/emersoneims/generator-oracle/internal/middleware"
)

type Config struct {
	// Bcrypt hash of the admin Bearer token. Empty disables the admin API.
	AdminTokenHash string
	EmailClient    *email.Client
}

type Server struct {
	db          *sql.DB
	keyStore    *store.LicenseKeyStore
	activateH   *handler.ActivateHandler
	adminH      *handler.AdminHandler
	cfg         Config
	logger      *slog.Logger
	rateLimiter *sharedmw.RateLimiter
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	keyStore := store.NewLicenseKeyStore(db)

	return &Server{
		db:          db,
		keyStore:    keyStore,
		activateH:   handler.NewActivateHandler(keyStore, logger.With("component", "activate")),
		adminH:      handler.NewAdminHandler(keyStore, cfg.EmailClient, logger.With("component", "admin")),
		cfg:         cfg,
		logger:      logger,
		rateLimiter: sharedmw.NewRateLimiter(),
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *sharedmw.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthCheck)

	// Device-facing activation endpoint (public, rate-limited)
	rateLimitMw := sharedmw.RateLimit(s.rateLimiter, sharedmw.RealIP, 20, time.Minute)
	mux.Handle("POST /api/oracle/activate", rateLimitMw(http.HandlerFunc(s.activateH.Activate)))

	// Admin API (Bearer token)
	adminMw := middleware.RequireAdmin(s.cfg.AdminTokenHash)
	mux.Handle("POST /admin/keys", adminMw(http.HandlerFunc(s.adminH.Issue)))
	mux.Handle("GET /admin/keys", adminMw(http.HandlerFunc(s.adminH.List)))
	mux.Handle("GET /admin/keys/{key}", adminMw(http.HandlerFunc(s.adminH.Get)))
	mux.Handle("POST /admin/keys/{key}/verify", adminMw(http.HandlerFunc(s.adminH.Verify)))
	mux.Handle("POST /admin/keys/{key}/revoke", adminMw(http.HandlerFunc(s.adminH.Revoke)))
	mux.Handle("POST /admin/keys/{key}/renew", adminMw(http.HandlerFunc(s.adminH.Renew)))
	mux.Handle("POST /admin/keys/{key}/unbind", adminMw(http.HandlerFunc(s.adminH.Unbind)))

	return sharedmw.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

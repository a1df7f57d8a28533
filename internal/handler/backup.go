package handler

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/emersoneims/generator-oracle/internal/backup"
	"github.com/emersoneims/generator-oracle/internal/store"
)

type BackupHandler struct {
	manager       *backup.Manager
	settingsStore *store.SettingsStore
	logger        *slog.Logger
}

func NewBackupHandler(m *backup.Manager, ss *store.SettingsStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, settingsStore: ss, logger: logger}
}

// Status handles GET /api/backup/status
func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.manager.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":          status.State,
		"in_progress":    status.InProgress,
		"last_backup":    status.LastBackup,
		"last_key":       status.LastKey,
		"last_error":     status.Error,
		"has_cached_key": h.manager.HasCachedKey(),
	})
}

type passphraseRequest struct {
	Passphrase string `json:"passphrase"`
}

// SetPassphrase handles POST /api/backup/passphrase. It generates a fresh
// salt, so calling it again invalidates previously uploaded snapshots'
// cached key (the snapshots themselves stay decryptable: each embeds its
// own salt).
func (h *BackupHandler) SetPassphrase(w http.ResponseWriter, r *http.Request) {
	var req passphraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Passphrase) < 8 {
		writeError(w, http.StatusBadRequest, "passphrase must be at least 8 characters")
		return
	}

	salt, err := backup.GenerateSalt()
	if err != nil {
		h.logger.Error("generate salt", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate salt")
		return
	}

	if err := h.settingsStore.Set("backup_passphrase_salt", hex.EncodeToString(salt)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save salt")
		return
	}

	h.manager.CacheKey(req.Passphrase, salt)
	writeJSON(w, http.StatusOK, map[string]bool{"configured": true})
}

// Run handles POST /api/backup/run
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req passphraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Passphrase == "" {
		writeError(w, http.StatusBadRequest, "passphrase is required")
		return
	}

	s3Key, err := h.manager.RunNow(r.Context(), req.Passphrase)
	if err != nil {
		h.logger.Error("manual backup", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"key": s3Key})
}

type restoreRequest struct {
	Key        string `json:"key"`
	Passphrase string `json:"passphrase"`
}

// Restore handles POST /api/backup/restore. On success the process exits
// so the supervisor restarts it against the restored database; the
// response is only written on failure.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Key == "" || req.Passphrase == "" {
		writeError(w, http.StatusBadRequest, "key and passphrase are required")
		return
	}

	if err := h.manager.Restore(r.Context(), req.Key, req.Passphrase); err != nil {
		h.logger.Error("restore", "error", err, "key", req.Key)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/emersoneims/generator-oracle/internal/backup"
	"github.com/emersoneims/generator-oracle/internal/store"
	"github.com/emersoneims/generator-oracle/internal/websocket"
)

type SettingsHandler struct {
	settingsStore *store.SettingsStore
	backupManager *backup.Manager
	hub           *websocket.Hub
}

func NewSettingsHandler(ss *store.SettingsStore, bm *backup.Manager, hub *websocket.Hub) *SettingsHandler {
	return &SettingsHandler{settingsStore: ss, backupManager: bm, hub: hub}
}

// Get handles GET /api/settings. Secret-bearing keys are redacted.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsStore.GetAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}
	if settings["s3_secret_key"] != "" {
		settings["s3_secret_key"] = "********"
	}
	writeJSON(w, http.StatusOK, settings)
}

// Update handles PUT /api/settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := validateSettings(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	for key, value := range req {
		if err := h.settingsStore.Set(key, value); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	// S3 changes take effect without a restart.
	if touchesBackupConfig(req) && h.backupManager != nil {
		if bs, err := h.settingsStore.GetBackupSettings(); err == nil {
			h.backupManager.UpdateS3Config(backup.S3Config{
				Endpoint:  bs["s3_endpoint"],
				Bucket:    bs["s3_bucket"],
				Region:    bs["s3_region"],
				AccessKey: bs["s3_access_key"],
				SecretKey: bs["s3_secret_key"],
			})
		}
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.Message{Type: "settings_updated"})
	}

	h.Get(w, r)
}

func validateSettings(settings map[string]string) error {
	allowedKeys := map[string]bool{
		"push_expiry_warnings": true,
		"backup_enabled":       true,
		"backup_schedule_hour": true,
		"language":             true,
		"theme_mode":           true,
		"s3_endpoint":          true,
		"s3_bucket":            true,
		"s3_region":            true,
		"s3_access_key":        true,
		"s3_secret_key":        true,
	}

	for key, value := range settings {
		if !allowedKeys[key] {
			return fmt.Errorf("unknown setting: %s", key)
		}

		switch key {
		case "push_expiry_warnings", "backup_enabled":
			if value != "true" && value != "false" {
				return fmt.Errorf("%s must be \"true\" or \"false\"", key)
			}
		case "backup_schedule_hour":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 || n > 23 {
				return fmt.Errorf("backup_schedule_hour must be 0-23")
			}
		case "theme_mode":
			if value != "dark" && value != "light" {
				return fmt.Errorf("theme_mode must be \"dark\" or \"light\"")
			}
		}
	}
	return nil
}

func touchesBackupConfig(settings map[string]string) bool {
	for key := range settings {
		switch key {
		case "s3_endpoint", "s3_bucket", "s3_region", "s3_access_key", "s3_secret_key":
			return true
		}
	}
	return false
}

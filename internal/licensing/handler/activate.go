package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/emersoneims/generator-oracle/internal/license"
	"github.com/emersoneims/generator-oracle/internal/licensing/model"
	"github.com/emersoneims/generator-oracle/internal/licensing/store"
)

// ActivateHandler serves the device-facing activation and heartbeat
// endpoint. Request and response shapes match the oracle's license client.
type ActivateHandler struct {
	keys   *store.LicenseKeyStore
	logger *slog.Logger
}

func NewActivateHandler(keys *store.LicenseKeyStore, logger *slog.Logger) *ActivateHandler {
	return &ActivateHandler{keys: keys, logger: logger}
}

type activateRequest struct {
	Key       string `json:"key"`
	DeviceID  string `json:"device_id"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Heartbeat bool   `json:"heartbeat,omitempty"`
}

type activateResponse struct {
	Success   bool    `json:"success"`
	Status    string  `json:"status,omitempty"`
	Tier      string  `json:"tier,omitempty"`
	ExpiresAt *string `json:"expires_at,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Activate handles POST /api/oracle/activate.
func (h *ActivateHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	key := license.FormatKey(req.Key)
	if !license.IsValidKeyFormat(key) || req.DeviceID == "" {
		writeResponse(w, activateResponse{Success: false, Error: license.ReasonNotFound})
		return
	}

	lk, err := h.keys.GetByKey(key)
	if err != nil {
		h.logger.Error("lookup key", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if lk == nil {
		writeResponse(w, activateResponse{Success: false, Error: license.ReasonNotFound})
		return
	}

	if lk.Status == model.StatusRevoked {
		writeResponse(w, activateResponse{Success: false, Status: lk.Status, Error: license.ReasonRevoked})
		return
	}

	// One device per key. The first activation binds; after that only the
	// bound device is served.
	if lk.DeviceID != nil && *lk.DeviceID != req.DeviceID {
		writeResponse(w, activateResponse{Success: false, Status: lk.Status, Error: license.ReasonDeviceBound})
		return
	}
	if lk.DeviceID == nil && !req.Heartbeat {
		if err := h.keys.BindDevice(lk.ID, req.DeviceID); err != nil {
			h.logger.Error("bind device", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		h.logger.Info("device bound", "key", lk.Key, "device", req.DeviceID)
	}

	if lk.Status == model.StatusPending {
		writeResponse(w, activateResponse{Success: false, Status: lk.Status, Error: license.ReasonPending})
		return
	}

	// Active keys past their expiry flip to expired on contact.
	if lk.Status == model.StatusActive && lk.ExpiresAt != nil && !lk.ExpiresAt.After(time.Now().UTC()) {
		if err := h.keys.MarkExpired(lk.ID); err != nil {
			h.logger.Error("mark expired", "error", err)
		}
		lk.Status = model.StatusExpired
	}
	if lk.Status == model.StatusExpired {
		writeResponse(w, activateResponse{Success: false, Status: lk.Status, Error: license.ReasonExpired})
		return
	}

	if err := h.keys.Heartbeat(lk.ID); err != nil {
		h.logger.Error("record heartbeat", "error", err)
	}

	resp := activateResponse{Success: true, Status: lk.Status, Tier: lk.Plan}
	if lk.ExpiresAt != nil {
		s := lk.ExpiresAt.UTC().Format(time.RFC3339)
		resp.ExpiresAt = &s
	}
	writeResponse(w, resp)
}

func writeResponse(w http.ResponseWriter, resp activateResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

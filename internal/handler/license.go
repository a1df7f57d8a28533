package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/emersoneims/generator-oracle/internal/license"
	"github.com/emersoneims/generator-oracle/internal/websocket"
)

// LicenseHandler exposes the activation modal's back end and the status
// queries the gate UI relies on.
type LicenseHandler struct {
	svc    *license.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewLicenseHandler(svc *license.Service, hub *websocket.Hub, logger *slog.Logger) *LicenseHandler {
	return &LicenseHandler{svc: svc, hub: hub, logger: logger}
}

func (h *LicenseHandler) broadcastStatus() {
	if h.hub == nil {
		return
	}
	status := h.svc.Status()
	var st string
	if status.License != nil {
		st = string(status.License.Status)
	}
	h.hub.Broadcast(websocket.LicenseStatusMessage(status.IsLicensed, st, status.Reason))
}

type keyRequest struct {
	Key string `json:"key"`
}

// ValidateKey handles POST /api/license/key — step one of the activation
// modal. It normalizes the pasted key and reports whether it is well
// formed, without touching the store or the licensing server.
func (h *LicenseHandler) ValidateKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	formatted := license.FormatKey(req.Key)
	if !license.IsValidKeyFormat(formatted) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"valid": false,
			"key":   formatted,
			"error": "Invalid license key format. Expected EIMS-XXXX-XXXX-XXXX.",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "key": formatted})
}

type activateRequest struct {
	Key   string `json:"key"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Activate handles POST /api/license/activate — step two of the modal.
func (h *LicenseHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result := h.svc.Activate(r.Context(), req.Key, req.Email, req.Phone)
	if !result.Success {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	h.broadcastStatus()
	writeJSON(w, http.StatusOK, result)
}

// Status handles GET /api/license/status.
func (h *LicenseHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// Info handles GET /api/license/info.
func (h *LicenseHandler) Info(w http.ResponseWriter, r *http.Request) {
	info := h.svc.GetInfo()
	if info == nil {
		writeError(w, http.StatusNotFound, "no license")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Heartbeat handles POST /api/license/heartbeat — the UI's "check again"
// button; forces a server revalidation.
func (h *LicenseHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	result := h.svc.Heartbeat(r.Context(), true)
	h.broadcastStatus()
	writeJSON(w, http.StatusOK, result)
}

// Remove handles DELETE /api/license — support-assisted device transfer.
func (h *LicenseHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Remove(); err != nil {
		h.logger.Error("remove license", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove license")
		return
	}
	h.broadcastStatus()
	w.WriteHeader(http.StatusNoContent)
}

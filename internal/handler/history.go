package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/emersoneims/generator-oracle/internal/model"
	"github.com/emersoneims/generator-oracle/internal/store"
	"github.com/emersoneims/generator-oracle/internal/websocket"
)

// HistoryHandler manages the diagnosis history behind the license gate.
type HistoryHandler struct {
	historyStore *store.HistoryStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewHistoryHandler(hs *store.HistoryStore, hub *websocket.Hub, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{historyStore: hs, hub: hub, logger: logger}
}

func (h *HistoryHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type appendHistoryRequest struct {
	ControllerBrand string `json:"controller_brand"`
	ControllerModel string `json:"controller_model"`
	FaultCode       string `json:"fault_code"`
	Summary         string `json:"summary"`
}

// Append handles POST /api/oracle/history.
func (h *HistoryHandler) Append(w http.ResponseWriter, r *http.Request) {
	var req appendHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.FaultCode == "" {
		writeError(w, http.StatusBadRequest, "fault_code is required")
		return
	}

	entry, err := h.historyStore.Append(&model.DiagnosisEntry{
		ControllerBrand: req.ControllerBrand,
		ControllerModel: req.ControllerModel,
		FaultCode:       req.FaultCode,
		Summary:         req.Summary,
	})
	if err != nil {
		h.logger.Error("append history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save entry")
		return
	}

	h.broadcast(websocket.HistoryMessage("created", entry.ID))
	writeJSON(w, http.StatusCreated, entry)
}

// List handles GET /api/oracle/history.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.historyStore.List()
	if err != nil {
		h.logger.Error("list history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if entries == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Get handles GET /api/oracle/history/{id}.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	entry, err := h.historyStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Resolve handles POST /api/oracle/history/{id}/resolve.
func (h *HistoryHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.historyStore.MarkResolved(id); err != nil {
		h.logger.Error("mark resolved", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update entry")
		return
	}

	h.broadcast(websocket.HistoryMessage("resolved", id))
	w.WriteHeader(http.StatusNoContent)
}

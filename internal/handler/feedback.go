package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/emersoneims/generator-oracle/internal/store"
)

// FeedbackHandler queues technician feedback for later sync. Submission is
// fire-and-forget from the UI's point of view.
type FeedbackHandler struct {
	feedbackStore *store.FeedbackStore
	logger        *slog.Logger
}

func NewFeedbackHandler(fs *store.FeedbackStore, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedbackStore: fs, logger: logger}
}

type feedbackRequest struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Contact  string `json:"contact"`
}

// Submit handles POST /api/oracle/feedback.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.Category == "" {
		req.Category = "general"
	}

	entry, err := h.feedbackStore.Enqueue(req.Category, req.Message, req.Contact)
	if err != nil {
		h.logger.Error("enqueue feedback", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save feedback")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// ListPending handles GET /api/oracle/feedback/pending.
func (h *FeedbackHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	entries, err := h.feedbackStore.ListPending()
	if err != nil {
		h.logger.Error("list pending feedback", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}
	if entries == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

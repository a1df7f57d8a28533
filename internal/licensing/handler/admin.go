package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/emersoneims/generator-oracle/internal/email"
	"github.com/emersoneims/generator-oracle/internal/license"
	"github.com/emersoneims/generator-oracle/internal/licensing/model"
	"github.com/emersoneims/generator-oracle/internal/licensing/store"
)

// AdminHandler covers key issuance and lifecycle operations performed by
// the business after out-of-band payments.
type AdminHandler struct {
	keys   *store.LicenseKeyStore
	email  *email.Client
	logger *slog.Logger
}

func NewAdminHandler(keys *store.LicenseKeyStore, emailClient *email.Client, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{keys: keys, email: emailClient, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// keyFromPath loads the key named in the {key} path segment.
func (h *AdminHandler) keyFromPath(w http.ResponseWriter, r *http.Request) *model.LicenseKey {
	key := license.FormatKey(r.PathValue("key"))
	lk, err := h.keys.GetByKey(key)
	if err != nil {
		h.logger.Error("lookup key", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if lk == nil {
		writeError(w, http.StatusNotFound, "key not found")
		return nil
	}
	return lk
}

type issueRequest struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Plan      string `json:"plan"`
	SendEmail bool   `json:"send_email"`
}

// Issue handles POST /admin/keys.
func (h *AdminHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Email == "" || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "email and phone are required")
		return
	}

	lk, err := h.keys.Issue(req.Email, req.Phone, req.Plan)
	if err != nil {
		h.logger.Error("issue key", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue key")
		return
	}
	h.logger.Info("key issued", "key", lk.Key, "email", lk.Email)

	if req.SendEmail && h.email != nil && h.email.Configured() {
		if err := h.email.SendLicenseKey(lk.Email, lk.Key); err != nil {
			// Issuance stands; the operator can resend manually.
			h.logger.Error("send key email", "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, lk)
}

// List handles GET /admin/keys.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keys.List()
	if err != nil {
		h.logger.Error("list keys", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list keys")
		return
	}
	if keys == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

// Get handles GET /admin/keys/{key}.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	lk := h.keyFromPath(w, r)
	if lk == nil {
		return
	}

	payments, err := h.keys.ListPayments(lk.ID)
	if err != nil {
		h.logger.Error("list payments", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"key": lk, "payments": payments})
}

type verifyRequest struct {
	AmountKES int64  `json:"amount_kes"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

// Verify handles POST /admin/keys/{key}/verify — payment confirmed,
// pending becomes active for one license period.
func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	lk := h.keyFromPath(w, r)
	if lk == nil {
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Reference == "" {
		writeError(w, http.StatusBadRequest, "payment reference is required")
		return
	}
	if req.AmountKES == 0 {
		req.AmountKES = license.PriceKES
	}
	if req.Method == "" {
		req.Method = "mpesa"
	}

	expires := time.Now().UTC().AddDate(license.PeriodYears, 0, 0)
	if err := h.keys.Verify(lk.ID, expires, req.Reference); err != nil {
		h.logger.Error("verify key", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to verify key")
		return
	}
	if _, err := h.keys.RecordPayment(lk.ID, req.AmountKES, req.Method, req.Reference); err != nil {
		h.logger.Error("record payment", "error", err)
	}
	h.logger.Info("payment verified", "key", lk.Key, "reference", req.Reference)

	if h.email != nil && h.email.Configured() {
		if err := h.email.SendPaymentVerified(lk.Email, lk.Key, expires.Format("2006-01-02")); err != nil {
			h.logger.Error("send verification email", "error", err)
		}
	}

	updated, _ := h.keys.GetByID(lk.ID)
	writeJSON(w, http.StatusOK, updated)
}

// Revoke handles POST /admin/keys/{key}/revoke.
func (h *AdminHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	lk := h.keyFromPath(w, r)
	if lk == nil {
		return
	}

	if err := h.keys.Revoke(lk.ID); err != nil {
		h.logger.Error("revoke key", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to revoke key")
		return
	}
	h.logger.Info("key revoked", "key", lk.Key)

	updated, _ := h.keys.GetByID(lk.ID)
	writeJSON(w, http.StatusOK, updated)
}

// Renew handles POST /admin/keys/{key}/renew — extends one period from
// the current expiry, or from now if already lapsed.
func (h *AdminHandler) Renew(w http.ResponseWriter, r *http.Request) {
	lk := h.keyFromPath(w, r)
	if lk == nil {
		return
	}

	base := time.Now().UTC()
	if lk.ExpiresAt != nil && lk.ExpiresAt.After(base) {
		base = *lk.ExpiresAt
	}
	expires := base.AddDate(license.PeriodYears, 0, 0)

	if err := h.keys.Renew(lk.ID, expires); err != nil {
		h.logger.Error("renew key", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to renew key")
		return
	}
	h.logger.Info("key renewed", "key", lk.Key, "expires", expires)

	updated, _ := h.keys.GetByID(lk.ID)
	writeJSON(w, http.StatusOK, updated)
}

// Unbind handles POST /admin/keys/{key}/unbind — device transfer.
func (h *AdminHandler) Unbind(w http.ResponseWriter, r *http.Request) {
	lk := h.keyFromPath(w, r)
	if lk == nil {
		return
	}

	if err := h.keys.Unbind(lk.ID); err != nil {
		h.logger.Error("unbind key", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to unbind key")
		return
	}
	h.logger.Info("device unbound", "key", lk.Key)

	updated, _ := h.keys.GetByID(lk.ID)
	writeJSON(w, http.StatusOK, updated)
}

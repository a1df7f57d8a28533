package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/emersoneims/generator-oracle/internal/license"
)

// StatusChecker reports the current licensing decision. Satisfied by
// *license.Service.
type StatusChecker interface {
	Status() license.StatusResult
}

// gateResponse is the body returned when the gate refuses a request. The
// license status is included so the UI can show the pending-verification
// view instead of the purchase overlay when a key has been submitted.
type gateResponse struct {
	Licensed bool   `json:"licensed"`
	Reason   string `json:"reason"`
	Status   string `json:"status,omitempty"`
}

// RequireLicense blocks diagnostic routes when the device is not licensed.
// Any failure to determine the status counts as unlicensed.
func RequireLicense(checker StatusChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			status := checker.Status()
			if status.IsLicensed {
				next.ServeHTTP(w, r)
				return
			}

			resp := gateResponse{Licensed: false, Reason: status.Reason}
			if status.License != nil {
				resp.Status = string(status.License.Status)
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(resp)
		})
	}
}

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emersoneims/generator-oracle/internal/license"
	"github.com/emersoneims/generator-oracle/internal/model"
)

type fakeChecker struct {
	result license.StatusResult
}

func (f *fakeChecker) Status() license.StatusResult { return f.result }

func TestRequireLicenseAllowsLicensed(t *testing.T) {
	checker := &fakeChecker{result: license.StatusResult{IsLicensed: true}}

	handler := RequireLicense(checker)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/oracle/diagnose", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireLicenseBlocksUnlicensed(t *testing.T) {
	checker := &fakeChecker{result: license.StatusResult{
		IsLicensed: false,
		Reason:     "No license found",
	}}

	handler := RequireLicense(checker)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/oracle/diagnose", nil))

	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusPaymentRequired)
	}

	var body gateResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Reason != "No license found" {
		t.Errorf("reason = %q", body.Reason)
	}
}

func TestRequireLicenseIncludesPendingStatus(t *testing.T) {
	checker := &fakeChecker{result: license.StatusResult{
		IsLicensed: false,
		Reason:     "License pending verification",
		License:    &model.License{Key: "EIMS-AB12-CD34-EF56", Status: model.StatusPending},
	}}

	handler := RequireLicense(checker)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/oracle/diagnose", nil))

	var body gateResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "pending" {
		t.Errorf("status = %q, want pending", body.Status)
	}
}

package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/emersoneims/generator-oracle/internal/license"
	"github.com/emersoneims/generator-oracle/internal/licensing/database"
	"github.com/emersoneims/generator-oracle/internal/licensing/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestIssue(t *testing.T) {
	s := NewLicenseKeyStore(setupTestDB(t))

	lk, err := s.Issue("buyer@example.com", "+254712345678", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if !license.IsValidKeyFormat(lk.Key) {
		t.Errorf("issued key %q has invalid format", lk.Key)
	}
	if lk.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", lk.Status)
	}
	if lk.Plan != "pro" {
		t.Errorf("plan = %q, want pro", lk.Plan)
	}
	if lk.DeviceID != nil {
		t.Error("new key should not be device-bound")
	}
}

func TestGetByKey(t *testing.T) {
	s := NewLicenseKeyStore(setupTestDB(t))

	issued, err := s.Issue("buyer@example.com", "+254712345678", "pro")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := s.GetByKey(issued.Key)
	if err != nil {
		t.Fatalf("get by key: %v", err)
	}
	if got == nil || got.ID != issued.ID {
		t.Fatalf("got %+v, want id %d", got, issued.ID)
	}

	missing, err := s.GetByKey("EIMS-0000-0000-0000")
	if err != nil {
		t.Fatalf("get missing key: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown key, got %+v", missing)
	}
}

func TestVerifyActivatesKey(t *testing.T) {
	s := NewLicenseKeyStore(setupTestDB(t))

	lk, _ := s.Issue("buyer@example.com", "+254712345678", "pro")
	expires := time.Now().UTC().AddDate(1, 0, 0)

	if err := s.Verify(lk.ID, expires, "MPESA-QX12AB34"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	got, _ := s.GetByID(lk.ID)
	if got.Status != model.StatusActive {
		t.Errorf("status = %q, want active", got.Status)
	}
	if got.ExpiresAt == nil {
		t.Fatal("expected expiry after verification")
	}
	if got.PaymentRef == nil || *got.PaymentRef != "MPESA-QX12AB34" {
		t.Errorf("payment ref = %v", got.PaymentRef)
	}
}

func TestBindAndUnbindDevice(t *testing.T) {
	s := NewLicenseKeyStore(setupTestDB(t))

	lk, _ := s.Issue("buyer@example.com", "+254712345678", "pro")

	if err := s.BindDevice(lk.ID, "DEVICE01DEVICE01"); err != nil {
		t.Fatalf("bind: %v", err)
	}

	got, _ := s.GetByID(lk.ID)
	if got.DeviceID == nil || *got.DeviceID != "DEVICE01DEVICE01" {
		t.Fatalf("device = %v, want bound", got.DeviceID)
	}
	if got.ActivatedAt == nil {
		t.Error("expected activated_at stamp on first bind")
	}
	firstActivated := *got.ActivatedAt

	// Rebinding keeps the original activation time.
	if err := s.BindDevice(lk.ID, "OTHERDEVICE00000"); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	got, _ = s.GetByID(lk.ID)
	if !got.ActivatedAt.Equal(firstActivated) {
		t.Error("activated_at should not change on rebind")
	}

	if err := s.Unbind(lk.ID); err != nil {
		t.Fatalf("unbind: %v", err)
	}
	got, _ = s.GetByID(lk.ID)
	if got.DeviceID != nil {
		t.Errorf("device = %v, want nil after unbind", got.DeviceID)
	}
}

func TestRevokeAndRenew(t *testing.T) {
	s := NewLicenseKeyStore(setupTestDB(t))

	lk, _ := s.Issue("buyer@example.com", "+254712345678", "pro")
	s.Verify(lk.ID, time.Now().UTC().AddDate(1, 0, 0), "MPESA-REF")

	if err := s.Revoke(lk.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	got, _ := s.GetByID(lk.ID)
	if got.Status != model.StatusRevoked {
		t.Errorf("status = %q, want revoked", got.Status)
	}

	newExpiry := time.Now().UTC().AddDate(2, 0, 0)
	if err := s.Renew(lk.ID, newExpiry); err != nil {
		t.Fatalf("renew: %v", err)
	}
	got, _ = s.GetByID(lk.ID)
	if got.Status != model.StatusActive {
		t.Errorf("status after renew = %q, want active", got.Status)
	}
}

func TestHeartbeat(t *testing.T) {
	s := NewLicenseKeyStore(setupTestDB(t))

	lk, _ := s.Issue("buyer@example.com", "+254712345678", "pro")
	if lk.LastHeartbeat != nil {
		t.Fatal("new key should have no heartbeat")
	}

	if err := s.Heartbeat(lk.ID); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	got, _ := s.GetByID(lk.ID)
	if got.LastHeartbeat == nil {
		t.Error("expected heartbeat timestamp")
	}
}

func TestPayments(t *testing.T) {
	s := NewLicenseKeyStore(setupTestDB(t))

	lk, _ := s.Issue("buyer@example.com", "+254712345678", "pro")

	p, err := s.RecordPayment(lk.ID, 20000, "mpesa", "QX12AB34CD")
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if p.AmountKES != 20000 {
		t.Errorf("amount = %d, want 20000", p.AmountKES)
	}

	payments, err := s.ListPayments(lk.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("got %d payments, want 1", len(payments))
	}
	if payments[0].Reference != "QX12AB34CD" {
		t.Errorf("reference = %q", payments[0].Reference)
	}
}

func TestListKeys(t *testing.T) {
	s := NewLicenseKeyStore(setupTestDB(t))

	for i := 0; i < 3; i++ {
		if _, err := s.Issue("buyer@example.com", "+254712345678", "pro"); err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
	}

	keys, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("got %d keys, want 3", len(keys))
	}
}

package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/emersoneims/generator-oracle/internal/database"
	"github.com/emersoneims/generator-oracle/internal/model"
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

func testLicense(key string) *model.License {
	expires := time.Date(2027, 3, 2, 0, 0, 0, 0, time.UTC)
	return &model.License{
		Key:         key,
		Email:       "user@example.com",
		Phone:       "0712345678",
		DeviceID:    "AB12CD34EF56AB12",
		Tier:        "pro",
		Status:      model.StatusPending,
		ActivatedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		ExpiresAt:   &expires,
	}
}

func TestLicenseGetEmpty(t *testing.T) {
	ls := NewLicenseStore(setupTestDB(t))

	l, err := ls.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if l != nil {
		t.Fatalf("expected nil license on empty store, got %+v", l)
	}
}

func TestLicenseSaveGet(t *testing.T) {
	ls := NewLicenseStore(setupTestDB(t))

	if err := ls.Save(testLicense("EIMS-AB12-CD34-EF56")); err != nil {
		t.Fatalf("save: %v", err)
	}

	l, err := ls.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if l == nil {
		t.Fatal("expected license, got nil")
	}
	if l.Key != "EIMS-AB12-CD34-EF56" {
		t.Errorf("key = %q, want %q", l.Key, "EIMS-AB12-CD34-EF56")
	}
	if l.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", l.Status)
	}
	if l.ExpiresAt == nil || !l.ExpiresAt.Equal(time.Date(2027, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expires_at = %v, want 2027-03-02", l.ExpiresAt)
	}
	if l.LastHeartbeat != nil {
		t.Errorf("last_heartbeat = %v, want nil", l.LastHeartbeat)
	}
}

func TestLicenseSaveOverwritesSlot(t *testing.T) {
	ls := NewLicenseStore(setupTestDB(t))

	if err := ls.Save(testLicense("EIMS-AB12-CD34-EF56")); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := testLicense("EIMS-9999-8888-7777")
	second.Status = model.StatusActive
	if err := ls.Save(second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	l, err := ls.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if l.Key != "EIMS-9999-8888-7777" {
		t.Errorf("key = %q, want the second key (single-slot overwrite)", l.Key)
	}
	if l.Status != model.StatusActive {
		t.Errorf("status = %q, want active", l.Status)
	}
}

func TestLicenseSaveLifetime(t *testing.T) {
	ls := NewLicenseStore(setupTestDB(t))

	l := testLicense("EIMS-AB12-CD34-EF56")
	l.ExpiresAt = nil
	if err := ls.Save(l); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := ls.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ExpiresAt != nil {
		t.Errorf("expires_at = %v, want nil for lifetime grant", got.ExpiresAt)
	}
}

func TestLicenseSaveRejectsUnknownStatus(t *testing.T) {
	ls := NewLicenseStore(setupTestDB(t))

	l := testLicense("EIMS-AB12-CD34-EF56")
	l.Status = "suspended"
	if err := ls.Save(l); err == nil {
		t.Fatal("expected error for unknown status, got nil")
	}
}

func TestLicenseDelete(t *testing.T) {
	ls := NewLicenseStore(setupTestDB(t))

	if err := ls.Save(testLicense("EIMS-AB12-CD34-EF56")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := ls.Delete(); err != nil {
		t.Fatalf("delete: %v", err)
	}

	l, err := ls.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if l != nil {
		t.Fatalf("expected nil after delete, got %+v", l)
	}
}

func TestLicenseGetAfterClose(t *testing.T) {
	db := setupTestDB(t)
	ls := NewLicenseStore(db)
	db.Close()

	if _, err := ls.Get(); err == nil {
		t.Fatal("expected error reading from closed db")
	}
}

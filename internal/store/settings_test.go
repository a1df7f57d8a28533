package store

import "testing"

func TestSettingsSeedData(t *testing.T) {
	ss := NewSettingsStore(setupTestDB(t))

	expected := map[string]string{
		"push_expiry_warnings": "true",
		"backup_enabled":       "false",
		"backup_schedule_hour": "2",
		"language":             "en",
		"theme_mode":           "dark",
	}

	all, err := ss.GetAll()
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	for key, want := range expected {
		got, ok := all[key]
		if !ok {
			t.Errorf("missing seed setting %q", key)
			continue
		}
		if got != want {
			t.Errorf("setting %q = %q, want %q", key, got, want)
		}
	}
}

func TestSettingsGetNotFound(t *testing.T) {
	ss := NewSettingsStore(setupTestDB(t))

	if _, err := ss.Get("nonexistent_key"); err == nil {
		t.Fatal("expected error for nonexistent key, got nil")
	}
}

func TestSettingsSet(t *testing.T) {
	ss := NewSettingsStore(setupTestDB(t))

	// Update existing
	if err := ss.Set("backup_enabled", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, err := ss.Get("backup_enabled")
	if err != nil {
		t.Fatalf("get after set: %v", err)
	}
	if val != "true" {
		t.Errorf("backup_enabled = %q, want %q", val, "true")
	}

	// Insert new
	if err := ss.Set("s3_bucket", "oracle-backups"); err != nil {
		t.Fatalf("set new key: %v", err)
	}
	val, err = ss.Get("s3_bucket")
	if err != nil {
		t.Fatalf("get new key: %v", err)
	}
	if val != "oracle-backups" {
		t.Errorf("s3_bucket = %q, want %q", val, "oracle-backups")
	}
}

func TestSettingsGetBackupSettings(t *testing.T) {
	ss := NewSettingsStore(setupTestDB(t))

	if err := ss.Set("s3_bucket", "oracle-backups"); err != nil {
		t.Fatalf("set: %v", err)
	}

	backup, err := ss.GetBackupSettings()
	if err != nil {
		t.Fatalf("get backup settings: %v", err)
	}
	if backup["s3_bucket"] != "oracle-backups" {
		t.Errorf("s3_bucket = %q, want %q", backup["s3_bucket"], "oracle-backups")
	}
	if _, ok := backup["language"]; ok {
		t.Error("non-backup key should not be in backup settings")
	}
}

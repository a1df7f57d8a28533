package license

import (
	"testing"
	"time"

	"github.com/emersoneims/generator-oracle/internal/model"
)

func TestExpiredBoundary(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"lifetime", nil, false},
		{"future", timePtr(now.Add(time.Second)), false},
		{"exactly now", timePtr(now), true}, // boundary is exclusive
		{"just past", timePtr(now.Add(-time.Second)), true},
		{"far past", timePtr(now.AddDate(-1, 0, 0)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &model.License{Status: model.StatusActive, ExpiresAt: tt.expiresAt}
			if got := Expired(l, now); got != tt.want {
				t.Errorf("Expired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDaysUntilExpiry(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	lifetime := &model.License{}
	if _, ok := DaysUntilExpiry(lifetime, now); ok {
		t.Error("lifetime license should report no expiry")
	}

	in30 := &model.License{ExpiresAt: timePtr(now.AddDate(0, 0, 30))}
	if days, ok := DaysUntilExpiry(in30, now); !ok || days != 30 {
		t.Errorf("days = %d, ok = %v, want 30, true", days, ok)
	}

	// Partial days round up.
	halfDay := &model.License{ExpiresAt: timePtr(now.Add(36 * time.Hour))}
	if days, _ := DaysUntilExpiry(halfDay, now); days != 2 {
		t.Errorf("36h out: days = %d, want 2", days)
	}

	past := &model.License{ExpiresAt: timePtr(now.AddDate(0, 0, -5))}
	if days, _ := DaysUntilExpiry(past, now); days >= 0 {
		t.Errorf("expired license days = %d, want negative", days)
	}
}

func TestNeedsRenewalWarning(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"lifetime", nil, false},
		{"90 days out", timePtr(now.AddDate(0, 0, 90)), false},
		{"30 days out", timePtr(now.AddDate(0, 0, 30)), true},
		{"1 day out", timePtr(now.AddDate(0, 0, 1)), true},
		{"already expired", timePtr(now.AddDate(0, 0, -1)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &model.License{ExpiresAt: tt.expiresAt}
			if got := NeedsRenewalWarning(l, now); got != tt.want {
				t.Errorf("NeedsRenewalWarning = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHeartbeatStale(t *testing.T) {
	now := time.Now()

	never := &model.License{}
	if !HeartbeatStale(never, now) {
		t.Error("license with no heartbeat should be stale")
	}

	fresh := &model.License{LastHeartbeat: timePtr(now.Add(-time.Hour))}
	if HeartbeatStale(fresh, now) {
		t.Error("1h-old heartbeat should not be stale")
	}

	old := &model.License{LastHeartbeat: timePtr(now.Add(-25 * time.Hour))}
	if !HeartbeatStale(old, now) {
		t.Error("25h-old heartbeat should be stale")
	}
}

func timePtr(t time.Time) *time.Time { return &t }

package license

import (
	"time"

	"github.com/emersoneims/generator-oracle/internal/model"
)

// Business constants for the Generator Oracle PRO license.
const (
	TierPro           = "pro"
	PriceKES          = 20000
	PeriodYears       = 1
	ExpiryWarningDays = 30

	// HeartbeatInterval is how often a device must revalidate with the
	// licensing server. OfflineGrace is how long access survives without a
	// successful heartbeat when the server is unreachable.
	HeartbeatInterval = 24 * time.Hour
	OfflineGrace      = 48 * time.Hour
)

// Expired reports whether the license expiry has passed at the given time.
// A nil ExpiresAt is a lifetime grant and never expires. The boundary is
// exclusive: a license whose ExpiresAt equals now is already expired.
func Expired(l *model.License, now time.Time) bool {
	if l.ExpiresAt == nil {
		return false
	}
	return !l.ExpiresAt.After(now)
}

// DaysUntilExpiry returns the number of days until the license expires,
// rounded up, and false for lifetime licenses. Negative for expired ones.
func DaysUntilExpiry(l *model.License, now time.Time) (int, bool) {
	if l.ExpiresAt == nil {
		return 0, false
	}
	d := l.ExpiresAt.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days, true
}

// NeedsRenewalWarning reports whether the license is within the renewal
// warning window (expiring in 30 days or fewer, but not yet expired).
func NeedsRenewalWarning(l *model.License, now time.Time) bool {
	days, ok := DaysUntilExpiry(l, now)
	return ok && days > 0 && days <= ExpiryWarningDays
}

// HeartbeatStale reports whether the last server validation is older than
// the heartbeat interval. A license that has never been validated is stale.
func HeartbeatStale(l *model.License, now time.Time) bool {
	if l.LastHeartbeat == nil {
		return true
	}
	return now.Sub(*l.LastHeartbeat) > HeartbeatInterval
}

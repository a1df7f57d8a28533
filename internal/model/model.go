package model

import "time"

// LicenseStatus is the closed set of states a license record can be in.
// The pending state means the key was submitted but the out-of-band payment
// has not been confirmed by the business yet.
type LicenseStatus string

const (
	StatusPending LicenseStatus = "pending"
	StatusActive  LicenseStatus = "active"
	StatusExpired LicenseStatus = "expired"
	StatusRevoked LicenseStatus = "revoked"
)

// Valid reports whether s is one of the known license statuses.
func (s LicenseStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusExpired, StatusRevoked:
		return true
	}
	return false
}

// License is the single locally persisted activation record for this device.
// ExpiresAt == nil denotes a lifetime grant.
type License struct {
	Key           string        `json:"key"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	DeviceID      string        `json:"device_id"`
	Tier          string        `json:"tier"`
	Status        LicenseStatus `json:"status"`
	ActivatedAt   time.Time     `json:"activated_at"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty"`
	LastHeartbeat *time.Time    `json:"last_heartbeat,omitempty"`
}

// DiagnosisEntry is one record in the append-only diagnosis history log.
type DiagnosisEntry struct {
	ID              int64     `json:"id"`
	ControllerBrand string    `json:"controller_brand"`
	ControllerModel string    `json:"controller_model"`
	FaultCode       string    `json:"fault_code"`
	Summary         string    `json:"summary"`
	Resolved        bool      `json:"resolved"`
	CreatedAt       time.Time `json:"created_at"`
}

// FeedbackEntry is a queued feedback report. Entries are written locally
// first and carry a UUID so the sync endpoint can deduplicate replays.
type FeedbackEntry struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Contact   string    `json:"contact,omitempty"`
	Synced    bool      `json:"synced"`
	CreatedAt time.Time `json:"created_at"`
}

// PushSubscription is a Web Push endpoint registered for expiry reminders.
type PushSubscription struct {
	ID         int64     `json:"id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}

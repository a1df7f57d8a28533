package model

import "time"

// Key statuses. Keys are issued pending and flip to active when an
// operator confirms the out-of-band payment.
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusExpired = "expired"
	StatusRevoked = "revoked"
)

// LicenseKey is the server-side record of an issued key. DeviceID is set
// on first activation; one device per key.
type LicenseKey struct {
	ID            int64      `json:"id"`
	Key           string     `json:"key"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Plan          string     `json:"plan"`
	Status        string     `json:"status"`
	DeviceID      *string    `json:"device_id,omitempty"`
	PaymentRef    *string    `json:"payment_ref,omitempty"`
	ActivatedAt   *time.Time `json:"activated_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	LastHeartbeat *time.Time `json:"last_heartbeat,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Payment is an append-only audit row for a confirmed out-of-band payment
// (M-Pesa or bank transfer).
type Payment struct {
	ID           int64     `json:"id"`
	LicenseKeyID int64     `json:"license_key_id"`
	AmountKES    int64     `json:"amount_kes"`
	Method       string    `json:"method"`
	Reference    string    `json:"reference"`
	CreatedAt    time.Time `json:"created_at"`
}

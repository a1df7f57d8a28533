package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/emersoneims/generator-oracle/internal/model"
)

// LicenseStore persists the single current-license slot. The table holds at
// most one row; saving replaces whatever record was there before.
type LicenseStore struct {
	db *sql.DB
}

func NewLicenseStore(db *sql.DB) *LicenseStore {
	return &LicenseStore{db: db}
}

// Get returns the current license record, or nil if none is stored.
func (s *LicenseStore) Get() (*model.License, error) {
	row := s.db.QueryRow(
		`SELECT key, email, phone, device_id, tier, status, activated_at, expires_at, last_heartbeat
		 FROM license WHERE id = 1`,
	)

	var l model.License
	var status string
	var expiresAt, lastHeartbeat sql.NullTime
	err := row.Scan(&l.Key, &l.Email, &l.Phone, &l.DeviceID, &l.Tier, &status, &l.ActivatedAt, &expiresAt, &lastHeartbeat)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get license: %w", err)
	}

	l.Status = model.LicenseStatus(status)
	if expiresAt.Valid {
		l.ExpiresAt = &expiresAt.Time
	}
	if lastHeartbeat.Valid {
		l.LastHeartbeat = &lastHeartbeat.Time
	}
	return &l, nil
}

// Save writes the license into the single slot, overwriting any previous
// record. The overwrite is a single upsert, so concurrent activations
// resolve last-write-wins.
func (s *LicenseStore) Save(l *model.License) error {
	if !l.Status.Valid() {
		return fmt.Errorf("save license: invalid status %q", l.Status)
	}

	var expiresAt, lastHeartbeat any
	if l.ExpiresAt != nil {
		expiresAt = l.ExpiresAt.UTC()
	}
	if l.LastHeartbeat != nil {
		lastHeartbeat = l.LastHeartbeat.UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO license (id, key, email, phone, device_id, tier, status, activated_at, expires_at, last_heartbeat, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     key = excluded.key, email = excluded.email, phone = excluded.phone,
		     device_id = excluded.device_id, tier = excluded.tier, status = excluded.status,
		     activated_at = excluded.activated_at, expires_at = excluded.expires_at,
		     last_heartbeat = excluded.last_heartbeat, updated_at = excluded.updated_at`,
		l.Key, l.Email, l.Phone, l.DeviceID, l.Tier, string(l.Status),
		l.ActivatedAt.UTC(), expiresAt, lastHeartbeat, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save license: %w", err)
	}
	return nil
}

// Delete clears the license slot.
func (s *LicenseStore) Delete() error {
	_, err := s.db.Exec(`DELETE FROM license WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("delete license: %w", err)
	}
	return nil
}

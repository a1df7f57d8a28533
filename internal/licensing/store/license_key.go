package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/emersoneims/generator-oracle/internal/license"
	"github.com/emersoneims/generator-oracle/internal/licensing/model"
)

type LicenseKeyStore struct {
	db *sql.DB
}

func NewLicenseKeyStore(db *sql.DB) *LicenseKeyStore {
	return &LicenseKeyStore{db: db}
}

const licenseKeyCols = `id, key, email, phone, plan, status, device_id, payment_ref,
	activated_at, expires_at, last_heartbeat, created_at, updated_at`

func scanLicenseKey(scanner interface{ Scan(...any) error }) (*model.LicenseKey, error) {
	var lk model.LicenseKey
	var deviceID, paymentRef sql.NullString
	var activatedAt, expiresAt, lastHeartbeat sql.NullTime
	err := scanner.Scan(
		&lk.ID, &lk.Key, &lk.Email, &lk.Phone, &lk.Plan, &lk.Status,
		&deviceID, &paymentRef, &activatedAt, &expiresAt, &lastHeartbeat,
		&lk.CreatedAt, &lk.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if deviceID.Valid {
		lk.DeviceID = &deviceID.String
	}
	if paymentRef.Valid {
		lk.PaymentRef = &paymentRef.String
	}
	if activatedAt.Valid {
		lk.ActivatedAt = &activatedAt.Time
	}
	if expiresAt.Valid {
		lk.ExpiresAt = &expiresAt.Time
	}
	if lastHeartbeat.Valid {
		lk.LastHeartbeat = &lastHeartbeat.Time
	}
	return &lk, nil
}

// Issue creates a new pending key for a buyer.
func (s *LicenseKeyStore) Issue(email, phone, plan string) (*model.LicenseKey, error) {
	key, err := license.GenerateKey()
	if err != nil {
		return nil, err
	}
	if plan == "" {
		plan = license.TierPro
	}

	result, err := s.db.Exec(
		`INSERT INTO license_keys (key, email, phone, plan) VALUES (?, ?, ?, ?)`,
		key, email, phone, plan,
	)
	if err != nil {
		return nil, fmt.Errorf("insert license key: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *LicenseKeyStore) GetByID(id int64) (*model.LicenseKey, error) {
	row := s.db.QueryRow(`SELECT `+licenseKeyCols+` FROM license_keys WHERE id = ?`, id)
	lk, err := scanLicenseKey(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get license key: %w", err)
	}
	return lk, nil
}

func (s *LicenseKeyStore) GetByKey(key string) (*model.LicenseKey, error) {
	row := s.db.QueryRow(`SELECT `+licenseKeyCols+` FROM license_keys WHERE key = ?`, key)
	lk, err := scanLicenseKey(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get license key by key: %w", err)
	}
	return lk, nil
}

func (s *LicenseKeyStore) List() ([]model.LicenseKey, error) {
	rows, err := s.db.Query(`SELECT ` + licenseKeyCols + ` FROM license_keys ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list license keys: %w", err)
	}
	defer rows.Close()

	var keys []model.LicenseKey
	for rows.Next() {
		lk, err := scanLicenseKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan license key: %w", err)
		}
		keys = append(keys, *lk)
	}
	return keys, rows.Err()
}

// BindDevice records the first activating device and stamps activated_at.
func (s *LicenseKeyStore) BindDevice(id int64, deviceID string) error {
	_, err := s.db.Exec(
		`UPDATE license_keys
		 SET device_id = ?, activated_at = COALESCE(activated_at, ?), updated_at = ?
		 WHERE id = ?`,
		deviceID, time.Now().UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("bind device: %w", err)
	}
	return nil
}

// Heartbeat refreshes the last validation timestamp.
func (s *LicenseKeyStore) Heartbeat(id int64) error {
	_, err := s.db.Exec(
		`UPDATE license_keys SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("record heartbeat: %w", err)
	}
	return nil
}

// Verify flips a pending key to active after a payment is confirmed.
func (s *LicenseKeyStore) Verify(id int64, expiresAt time.Time, paymentRef string) error {
	_, err := s.db.Exec(
		`UPDATE license_keys
		 SET status = ?, expires_at = ?, payment_ref = ?, updated_at = ?
		 WHERE id = ?`,
		model.StatusActive, expiresAt.UTC(), paymentRef, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("verify license key: %w", err)
	}
	return nil
}

func (s *LicenseKeyStore) Revoke(id int64) error {
	return s.setStatus(id, model.StatusRevoked)
}

// Renew extends an active or expired key.
func (s *LicenseKeyStore) Renew(id int64, expiresAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE license_keys SET status = ?, expires_at = ?, updated_at = ? WHERE id = ?`,
		model.StatusActive, expiresAt.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("renew license key: %w", err)
	}
	return nil
}

// Unbind clears the device binding so the buyer can move to new hardware.
func (s *LicenseKeyStore) Unbind(id int64) error {
	_, err := s.db.Exec(
		`UPDATE license_keys SET device_id = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("unbind device: %w", err)
	}
	return nil
}

// MarkExpired flips an active key whose expiry has passed.
func (s *LicenseKeyStore) MarkExpired(id int64) error {
	return s.setStatus(id, model.StatusExpired)
}

func (s *LicenseKeyStore) setStatus(id int64, status string) error {
	_, err := s.db.Exec(
		`UPDATE license_keys SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set license key status: %w", err)
	}
	return nil
}

// RecordPayment appends a payment confirmation to the audit trail.
func (s *LicenseKeyStore) RecordPayment(licenseKeyID, amountKES int64, method, reference string) (*model.Payment, error) {
	result, err := s.db.Exec(
		`INSERT INTO payments (license_key_id, amount_kes, method, reference) VALUES (?, ?, ?, ?)`,
		licenseKeyID, amountKES, method, reference,
	)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var p model.Payment
	row := s.db.QueryRow(
		`SELECT id, license_key_id, amount_kes, method, reference, created_at FROM payments WHERE id = ?`, id,
	)
	if err := row.Scan(&p.ID, &p.LicenseKeyID, &p.AmountKES, &p.Method, &p.Reference, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

// ListPayments returns the payment history for a key.
func (s *LicenseKeyStore) ListPayments(licenseKeyID int64) ([]model.Payment, error) {
	rows, err := s.db.Query(
		`SELECT id, license_key_id, amount_kes, method, reference, created_at
		 FROM payments WHERE license_key_id = ? ORDER BY id`,
		licenseKeyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.LicenseKeyID, &p.AmountKES, &p.Method, &p.Reference, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

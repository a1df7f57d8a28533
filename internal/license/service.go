package license

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/emersoneims/generator-oracle/internal/model"
)

// Store is the persistence surface the service needs: the single
// current-license slot.
type Store interface {
	Get() (*model.License, error)
	Save(*model.License) error
	Delete() error
}

// ActivationResult reports the outcome of an activation attempt. Expected
// failures (bad format, refused key) come back as Success=false with a
// user-facing message; Activate never returns an error to its caller.
type ActivationResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	License *model.License `json:"license,omitempty"`
}

// StatusResult is the answer to "is this device licensed right now".
// License is included even when unlicensed so the UI can distinguish a
// pending-verification state from a missing key.
type StatusResult struct {
	IsLicensed bool           `json:"is_licensed"`
	License    *model.License `json:"license,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

// Info is the detailed view used by the status indicator and the renewal
// banner.
type Info struct {
	IsLicensed    bool           `json:"is_licensed"`
	License       *model.License `json:"license,omitempty"`
	DaysRemaining int            `json:"days_remaining"`
	Lifetime      bool           `json:"lifetime"`
	NeedsRenewal  bool           `json:"needs_renewal"`
	IsExpired     bool           `json:"is_expired"`
	StatusMessage string         `json:"status_message"`
}

// Service implements activation and status decisions over the local store,
// with optional revalidation against the licensing server. All dependencies
// are injected; there is no package-level state.
type Service struct {
	store    Store
	client   *Client // nil when no licensing server is configured
	deviceID string
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store Store, client *Client, deviceID string, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		client:   client,
		deviceID: deviceID,
		logger:   logger,
		now:      time.Now,
	}
}

// Activate validates and submits a license key with contact details, then
// persists the resulting record in the single license slot. Format
// validation happens before anything is persisted or sent anywhere.
func (s *Service) Activate(ctx context.Context, key, email, phone string) ActivationResult {
	key = FormatKey(key)
	if !IsValidKeyFormat(key) {
		return ActivationResult{Success: false, Message: "Invalid license key format. Expected EIMS-XXXX-XXXX-XXXX."}
	}

	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if email == "" || phone == "" {
		return ActivationResult{Success: false, Message: "Email and phone are required."}
	}

	now := s.now().UTC()
	lic := &model.License{
		Key:         key,
		Email:       email,
		Phone:       phone,
		DeviceID:    s.deviceID,
		Tier:        TierPro,
		Status:      model.StatusPending,
		ActivatedAt: now,
	}

	if s.client == nil {
		return s.persistPending(lic)
	}

	resp, err := s.client.Activate(ctx, ActivateRequest{
		Key:      key,
		DeviceID: s.deviceID,
		Email:    email,
		Phone:    phone,
	})
	if err != nil {
		// Server unreachable: record the submission locally and wait for
		// the next heartbeat to reconcile.
		s.logger.Warn("activation server unreachable, saving pending record", "error", err)
		return s.persistPending(lic)
	}

	if !resp.Success {
		switch resp.Error {
		case ReasonPending:
			// Key exists, payment not yet confirmed. Keep the record so
			// the UI shows the pending-verification view.
			return s.persistPending(lic)
		case ReasonDeviceBound:
			return ActivationResult{Success: false, Message: "This license is already bound to another device. Each license works on one device only; contact support to transfer it."}
		case ReasonNotFound:
			return ActivationResult{Success: false, Message: "License key not recognized. Check the key you received via SMS or email."}
		case ReasonExpired:
			return ActivationResult{Success: false, Message: "This license has expired. Renew it to continue."}
		case ReasonRevoked:
			return ActivationResult{Success: false, Message: "This license has been revoked. Contact support."}
		default:
			return ActivationResult{Success: false, Message: "License validation failed. Please try again."}
		}
	}

	lic.Status = model.StatusActive
	if resp.Tier != "" {
		lic.Tier = resp.Tier
	}
	lic.ExpiresAt = resp.ParseExpiry()
	lic.LastHeartbeat = &now

	if err := s.store.Save(lic); err != nil {
		s.logger.Error("persist activated license", "error", err)
		return ActivationResult{Success: false, Message: "Failed to activate license. Please try again."}
	}
	return ActivationResult{Success: true, Message: "License activated successfully!", License: lic}
}

func (s *Service) persistPending(lic *model.License) ActivationResult {
	if err := s.store.Save(lic); err != nil {
		s.logger.Error("persist pending license", "error", err)
		return ActivationResult{Success: false, Message: "Failed to activate license. Please try again."}
	}
	return ActivationResult{Success: true, Message: "License submitted. Access unlocks once your payment is verified.", License: lic}
}

// Status computes whether this device is licensed right now, purely from
// the local record. Precedence: no record, pending, expired status,
// revoked, expiry date passed, device mismatch, licensed. Any store
// failure is treated as unlicensed, never as an error to the caller.
func (s *Service) Status() StatusResult {
	lic, err := s.store.Get()
	if err != nil {
		s.logger.Warn("read license", "error", err)
		return StatusResult{IsLicensed: false, Reason: "Error checking license status"}
	}
	if lic == nil {
		return StatusResult{IsLicensed: false, Reason: "No license found"}
	}

	switch lic.Status {
	case model.StatusPending:
		return StatusResult{IsLicensed: false, License: lic, Reason: "License pending verification"}
	case model.StatusExpired:
		return StatusResult{IsLicensed: false, License: lic, Reason: "License has expired"}
	case model.StatusRevoked:
		return StatusResult{IsLicensed: false, License: lic, Reason: "License has been revoked"}
	case model.StatusActive:
		if Expired(lic, s.now()) {
			return StatusResult{IsLicensed: false, License: lic, Reason: "License has expired"}
		}
		if s.deviceID != "" && lic.DeviceID != "" && lic.DeviceID != s.deviceID {
			return StatusResult{IsLicensed: false, License: lic, Reason: "License registered to different device"}
		}
		return StatusResult{IsLicensed: true, License: lic}
	default:
		// Unknown status from a future schema: deny, don't guess.
		return StatusResult{IsLicensed: false, License: lic, Reason: "Unknown license status"}
	}
}

// Heartbeat revalidates the stored license against the licensing server.
// When force is false the server is only contacted if the last validation
// is older than the heartbeat interval. Network failures fall back to a
// 48-hour offline grace window for active licenses.
func (s *Service) Heartbeat(ctx context.Context, force bool) StatusResult {
	lic, err := s.store.Get()
	if err != nil {
		s.logger.Warn("read license", "error", err)
		return StatusResult{IsLicensed: false, Reason: "Error checking license status"}
	}
	if lic == nil {
		return StatusResult{IsLicensed: false, Reason: "No license found"}
	}

	now := s.now().UTC()
	if s.client == nil || (!force && !HeartbeatStale(lic, now)) {
		return s.Status()
	}

	resp, err := s.client.Heartbeat(ctx, lic.Key, s.deviceID)
	if err != nil {
		return s.offlineFallback(lic, now)
	}

	switch {
	case resp.Success:
		lic.Status = model.StatusActive
		lic.ExpiresAt = resp.ParseExpiry()
		lic.LastHeartbeat = &now
		if err := s.store.Save(lic); err != nil {
			s.logger.Error("persist heartbeat", "error", err)
		}
		return StatusResult{IsLicensed: true, License: lic}
	case resp.Error == ReasonExpired:
		lic.Status = model.StatusExpired
		if err := s.store.Save(lic); err != nil {
			s.logger.Error("persist expired status", "error", err)
		}
		return StatusResult{IsLicensed: false, License: lic, Reason: "License has expired"}
	case resp.Error == ReasonRevoked:
		lic.Status = model.StatusRevoked
		if err := s.store.Save(lic); err != nil {
			s.logger.Error("persist revoked status", "error", err)
		}
		return StatusResult{IsLicensed: false, License: lic, Reason: "License has been revoked"}
	case resp.Error == ReasonDeviceBound:
		return StatusResult{IsLicensed: false, License: lic, Reason: "License registered to different device"}
	case resp.Error == ReasonPending:
		return StatusResult{IsLicensed: false, License: lic, Reason: "License pending verification"}
	default:
		return StatusResult{IsLicensed: false, License: lic, Reason: "License validation failed"}
	}
}

func (s *Service) offlineFallback(lic *model.License, now time.Time) StatusResult {
	if lic.Status == model.StatusActive && !Expired(lic, now) &&
		lic.LastHeartbeat != nil && now.Sub(*lic.LastHeartbeat) < OfflineGrace {
		s.logger.Info("licensing server unreachable, within offline grace")
		return StatusResult{IsLicensed: true, License: lic}
	}
	return StatusResult{IsLicensed: false, License: lic, Reason: "Unable to verify license. Please connect to the internet."}
}

// GetInfo builds the detailed license view for display.
func (s *Service) GetInfo() *Info {
	status := s.Status()
	if status.License == nil {
		return nil
	}

	lic := status.License
	now := s.now()
	days, hasExpiry := DaysUntilExpiry(lic, now)
	expired := Expired(lic, now)
	needsRenewal := NeedsRenewalWarning(lic, now)

	var msg string
	switch {
	case lic.Status == model.StatusRevoked:
		msg = "License has been revoked"
	case lic.Status == model.StatusPending:
		msg = "License pending verification"
	case expired || lic.Status == model.StatusExpired:
		msg = "License has expired"
	case needsRenewal:
		msg = "License expires soon"
	default:
		msg = "License is active"
	}

	return &Info{
		IsLicensed:    status.IsLicensed,
		License:       lic,
		DaysRemaining: days,
		Lifetime:      !hasExpiry,
		NeedsRenewal:  needsRenewal,
		IsExpired:     expired,
		StatusMessage: msg,
	}
}

// Remove clears the license slot (support-assisted transfer path).
func (s *Service) Remove() error {
	return s.store.Delete()
}

// Run executes the periodic heartbeat loop until ctx is done. onChange is
// invoked after every heartbeat so the caller can notify connected clients.
func (s *Service) Run(ctx context.Context, interval time.Duration, onChange func(StatusResult)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			result := s.Heartbeat(ctx, false)
			if onChange != nil {
				onChange(result)
			}
		case <-ctx.Done():
			return
		}
	}
}

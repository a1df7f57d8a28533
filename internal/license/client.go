package license

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// ClientConfig holds licensing-server connection settings.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ActivateRequest is the wire request for both activation and heartbeat
// calls against the licensing server.
type ActivateRequest struct {
	Key       string `json:"key"`
	DeviceID  string `json:"device_id"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Heartbeat bool   `json:"heartbeat,omitempty"`
}

// ActivateResponse is the licensing server's answer. Status is present
// whenever the key exists; Error carries a machine-readable reason when
// Success is false.
type ActivateResponse struct {
	Success   bool    `json:"success"`
	Status    string  `json:"status,omitempty"`
	Tier      string  `json:"tier,omitempty"`
	ExpiresAt *string `json:"expires_at,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Reason codes returned by the licensing server.
const (
	ReasonNotFound    = "not_found"
	ReasonPending     = "pending_verification"
	ReasonDeviceBound = "device_bound"
	ReasonExpired     = "expired"
	ReasonRevoked     = "revoked"
)

// Client talks to the business licensing server. Activation binds this
// device to the key; heartbeat calls refresh the server-side validation
// timestamp and pick up status changes (payment verified, revocation).
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Activate submits a key for this device. A nil error with Success=false
// means the server answered but refused (pending, bound, revoked, ...); an
// error means the server could not be reached.
func (c *Client) Activate(ctx context.Context, req ActivateRequest) (*ActivateResponse, error) {
	return c.post(ctx, req)
}

// Heartbeat revalidates an already-stored key.
func (c *Client) Heartbeat(ctx context.Context, key, deviceID string) (*ActivateResponse, error) {
	return c.post(ctx, ActivateRequest{Key: key, DeviceID: deviceID, Heartbeat: true})
}

func (c *Client) post(ctx context.Context, req ActivateRequest) (*ActivateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var out ActivateResponse
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/oracle/activate", bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("licensing server returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("licensing server returned %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	if err != nil {
		return nil, fmt.Errorf("activate request: %w", err)
	}
	return &out, nil
}

// ParseExpiry converts the wire expiry into a time pointer, nil for
// lifetime grants or unparseable values.
func (r *ActivateResponse) ParseExpiry() *time.Time {
	if r.ExpiresAt == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *r.ExpiresAt)
	if err != nil {
		return nil
	}
	return &t
}

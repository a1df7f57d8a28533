package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const postmarkURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	httpClient  *http.Client
	endpoint    string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithEndpoint overrides the Postmark API URL, for tests.
func WithEndpoint(url string) Option {
	return func(cl *Client) {
		cl.endpoint = url
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		httpClient:  http.DefaultClient,
		endpoint:    postmarkURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendLicenseKey delivers a freshly issued license key to the buyer.
func (c *Client) SendLicenseKey(toEmail, key string) error {
	subject := "Your Generator Oracle license key"
	textBody := fmt.Sprintf(
		"Thank you for purchasing Generator Oracle.\n\n"+
			"Your license key:\n\n    %s\n\n"+
			"Open Generator Oracle on your device, choose Activate License and enter "+
			"the key together with this email address and your phone number.\n\n"+
			"The key unlocks one device. Contact support@emersoneims.co.ke if you need help.",
		key,
	)
	htmlBody := fmt.Sprintf(
		`<p>Thank you for purchasing Generator Oracle.</p>`+
			`<p>Your license key:</p><p style="font-size:1.3em"><strong>%s</strong></p>`+
			`<p>Open Generator Oracle on your device, choose <em>Activate License</em> and enter `+
			`the key together with this email address and your phone number.</p>`+
			`<p>The key unlocks one device. Contact support@emersoneims.co.ke if you need help.</p>`,
		key,
	)
	return c.send(toEmail, subject, htmlBody, textBody)
}

// SendPaymentVerified tells the buyer their key is now active.
func (c *Client) SendPaymentVerified(toEmail, key, expiresOn string) error {
	subject := "Generator Oracle license activated"
	textBody := fmt.Sprintf(
		"Your payment has been verified and license %s is now active until %s.\n\n"+
			"Generator Oracle will unlock automatically within a day; use the "+
			"\"check again\" button on the activation screen to unlock immediately.",
		key, expiresOn,
	)
	htmlBody := fmt.Sprintf(
		`<p>Your payment has been verified and license <strong>%s</strong> is now active until %s.</p>`+
			`<p>Generator Oracle will unlock automatically within a day; use the `+
			`&quot;check again&quot; button on the activation screen to unlock immediately.</p>`,
		key, expiresOn,
	)
	return c.send(toEmail, subject, htmlBody, textBody)
}

func (c *Client) send(toEmail, subject, htmlBody, textBody string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rollcall/internal/creds"
)

const messageTemplate = "Student %s was absent!"

// ErrMissingCredentials rejects a send before any network call is made.
var ErrMissingCredentials = errors.New("missing sms api key or device id")

// Client calls the SMS gateway's bulk-send endpoint. Every send carries a
// single recipient; the gateway's batching support is deliberately unused.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a client with the given send timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Send submits one absence SMS for a single student. A transport failure,
// a non-2xx response or a non-200 status field in the body is a failure;
// there is no retry.
func (c *Client) Send(ctx context.Context, cr creds.Credentials, phone, name string) error {
	if cr.APIKey == "" || cr.DeviceID == "" {
		return ErrMissingCredentials
	}

	form := url.Values{
		"secret":   {cr.APIKey},
		"mode":     {"devices"},
		"campaign": {"bulk test"},
		"numbers":  {phone},
		"device":   {cr.DeviceID},
		"sim":      {"2"},
		"priority": {"1"},
		"message":  {fmt.Sprintf(messageTemplate, name)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/send/sms.bulk", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms gateway error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode sms gateway response: %w", err)
	}
	if out.Status != 200 {
		return fmt.Errorf("sms gateway rejected send (status %d): %s", out.Status, out.Message)
	}
	return nil
}

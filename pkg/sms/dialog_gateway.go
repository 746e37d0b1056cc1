// Package sms sends text messages through the Dialog eSMS REST API.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DialogGateway implements SMS sending via Dialog eSMS API
type DialogGateway struct {
	apiURL   string
	username string
	password string
	mask     string
	client   *http.Client

	tokenMutex  sync.RWMutex
	token       string
	tokenExpiry time.Time
}

// DialogConfig holds configuration for Dialog SMS Gateway
type DialogConfig struct {
	APIURL   string
	Username string
	Password string
	Mask     string
}

// NewDialogGateway creates a new Dialog SMS Gateway client
func NewDialogGateway(config DialogConfig) *DialogGateway {
	return &DialogGateway{
		apiURL:   strings.TrimSuffix(config.APIURL, "/"),
		username: config.Username,
		password: config.Password,
		mask:     config.Mask,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status     string `json:"status"`
	Comment    string `json:"comment"`
	Token      string `json:"token"`
	Expiration int    `json:"expiration"` // seconds
	ErrCode    string `json:"errCode"`
}

type recipient struct {
	Mobile string `json:"mobile"`
}

type sendRequest struct {
	MSISDN        []recipient `json:"msisdn"`
	Message       string      `json:"message"`
	SourceAddress string      `json:"sourceAddress,omitempty"`
	TransactionID int64       `json:"transaction_id"`
	PaymentMethod int         `json:"payment_method"` // 0 = wallet
}

type sendResponse struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	ErrCode string `json:"errCode"`
}

// postJSON sends body as JSON and decodes the response into out
func (d *DialogGateway) postJSON(ctx context.Context, path string, body, out interface{}, authorize bool) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authorize {
		d.tokenMutex.RLock()
		req.Header.Set("Authorization", "Bearer "+d.token)
		d.tokenMutex.RUnlock()
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

// login retrieves a fresh access token
func (d *DialogGateway) login(ctx context.Context) error {
	var resp loginResponse
	if err := d.postJSON(ctx, "/login", loginRequest{Username: d.username, Password: d.password}, &resp, false); err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}

	if resp.Status != "success" {
		return fmt.Errorf("login failed: %s (error code: %s)", resp.Comment, resp.ErrCode)
	}

	d.tokenMutex.Lock()
	d.token = resp.Token
	d.tokenExpiry = time.Now().Add(time.Duration(resp.Expiration) * time.Second)
	d.tokenMutex.Unlock()

	return nil
}

// ensureValidToken logs in again when the token is missing or within 5
// minutes of expiry
func (d *DialogGateway) ensureValidToken(ctx context.Context) error {
	d.tokenMutex.RLock()
	valid := d.token != "" && time.Now().Before(d.tokenExpiry.Add(-5*time.Minute))
	d.tokenMutex.RUnlock()

	if valid {
		return nil
	}
	return d.login(ctx)
}

// FormatMSISDN strips an E.164 number to the digits Dialog expects
func FormatMSISDN(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Send delivers message to a single phone number and returns the transaction id
func (d *DialogGateway) Send(ctx context.Context, phone, message string) (int64, error) {
	if err := d.ensureValidToken(ctx); err != nil {
		return 0, fmt.Errorf("failed to get access token: %w", err)
	}

	mobile := FormatMSISDN(phone)
	if mobile == "" {
		return 0, fmt.Errorf("invalid phone number %q", phone)
	}

	transactionID := time.Now().UnixMicro()
	req := sendRequest{
		MSISDN:        []recipient{{Mobile: mobile}},
		Message:       message,
		SourceAddress: d.mask,
		TransactionID: transactionID,
	}

	var resp sendResponse
	if err := d.postJSON(ctx, "/sms", req, &resp, true); err != nil {
		return 0, fmt.Errorf("SMS request failed: %w", err)
	}

	if resp.Status != "success" {
		return 0, fmt.Errorf("SMS sending failed: %s (error code: %s)", resp.Comment, resp.ErrCode)
	}

	return transactionID, nil
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrMessengerDisabled is returned when no page access token is configured
var ErrMessengerDisabled = errors.New("messenger replies disabled: no page access token")

// MessengerClient sends replies through the Graph API Send endpoint
type MessengerClient struct {
	baseURL    string
	token      string
	limiter    *RateLimiter
	httpClient *http.Client
}

// NewMessengerClient creates a client. A nil httpClient gets a client with
// a 10 second timeout.
func NewMessengerClient(baseURL, pageAccessToken string, limiter *RateLimiter, httpClient *http.Client) *MessengerClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &MessengerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      pageAccessToken,
		limiter:    limiter,
		httpClient: httpClient,
	}
}

// Enabled reports whether replies can be sent
func (m *MessengerClient) Enabled() bool {
	return m != nil && m.token != ""
}

type sendRequest struct {
	Recipient     sendRecipient `json:"recipient"`
	Message       sendMessage   `json:"message"`
	MessagingType string        `json:"messaging_type"`
}

type sendRecipient struct {
	ID string `json:"id"`
}

type sendMessage struct {
	Text string `json:"text"`
}

// SendText sends a text reply to a Messenger user
func (m *MessengerClient) SendText(ctx context.Context, recipientID, text string) error {
	if !m.Enabled() {
		return ErrMessengerDisabled
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", m.baseURL, url.QueryEscape(m.token))

	payload := sendRequest{
		Recipient:     sendRecipient{ID: recipientID},
		Message:       sendMessage{Text: text},
		MessagingType: "RESPONSE",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("Failed to send messenger reply",
			"recipientID", recipientID,
			"status", resp.StatusCode,
			"body", string(body))
		return fmt.Errorf("failed to send message: %s", resp.Status)
	}

	slog.Debug("Messenger reply sent", "recipientID", recipientID)
	return nil
}

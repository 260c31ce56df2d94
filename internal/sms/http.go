package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSender posts messages to a JSON SMS gateway.
type HTTPSender struct {
	URL        string
	APIKey     string
	From       string
	HTTPClient *http.Client
}

func NewHTTPSender(url, apiKey, from string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		URL:        url,
		APIKey:     apiKey,
		From:       from,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Text string `json:"text"`
}

func (s *HTTPSender) Send(ctx context.Context, phone, code string) error {
	data, err := json.Marshal(sendRequest{From: s.From, To: phone, Text: messageText(code)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

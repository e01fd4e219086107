// Package payment はカード決済サービスのREST APIクライアントを提供する。
package payment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ClientConfig は決済APIクライアントの設定。
type ClientConfig struct {
	BaseURL   string        // 例: https://api.pay.example.com/v1
	SecretKey string        // Basic認証のユーザー名として送る秘密鍵
	Timeout   time.Duration // 1リクエストあたりのタイムアウト
}

// Client は決済APIクライアント。
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient はClientを生成する。
func NewClient(config ClientConfig) *Client {
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Capture は与信確保済みの決済を売上確定する。
func (c *Client) Capture(ctx context.Context, chargeID string) error {
	return c.post(ctx, "/charges/"+url.PathEscape(chargeID)+"/capture", nil)
}

// Refund は決済を全額返金する。
func (c *Client) Refund(ctx context.Context, chargeID, reason string) error {
	form := url.Values{"refund_reason": {reason}}
	return c.post(ctx, "/charges/"+url.PathEscape(chargeID)+"/refund", form)
}

func (c *Client) post(ctx context.Context, path string, form url.Values) error {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create payment request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.SetBasicAuth(c.config.SecretKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("failed to read payment response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("payment request %s failed with status %d: %s", path, resp.StatusCode, string(respBody))
	}
	return nil
}

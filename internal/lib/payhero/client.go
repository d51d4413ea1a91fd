// Package payhero — клиент REST API PayHero: STK push и отправка WhatsApp-сообщений.
package payhero

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/token-billing/internal/config"
)

// ErrNotConfigured — не задан ключ доступа или WhatsApp-сессия.
var ErrNotConfigured = errors.New("payhero client is not configured")

// Client выполняет запросы к PayHero.
type Client struct {
	baseURL    string
	basicAuth  string
	session    string
	httpClient *http.Client
}

// NewClient создаёт клиент по секции payhero конфига.
func NewClient(cfg config.PayHero) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		basicAuth:  cfg.BasicAuth,
		session:    cfg.WhatsAppSession,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	// ключ хранится уже закодированным, вместе с префиксом Basic
	req.Header.Set("Authorization", c.basicAuth)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// InitiatePush отправляет STK push на телефон покупателя.
func (c *Client) InitiatePush(ctx context.Context, reqParams STKPushRequest) (*STKPushResponse, error) {
	const op = "payhero.InitiatePush"
	if c.basicAuth == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/payments", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var out STKPushResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// SendWhatsApp отправляет текстовое сообщение на номер phone.
func (c *Client) SendWhatsApp(ctx context.Context, phone, message string) error {
	const op = "payhero.SendWhatsApp"
	if c.basicAuth == "" || c.session == "" {
		return fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/whatspp/sendText", WhatsAppTextRequest{
		Message:     message,
		PhoneNumber: phone,
		Session:     c.session,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

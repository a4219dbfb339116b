package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/thereayou/voxus-client/pkg/auth"
)

// TokenSource отдаёт текущий токен сессии; пустая строка — пользователь не вошёл.
type TokenSource interface {
	Token() string
}

// TokenFunc адаптирует функцию под TokenSource
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client — HTTP-клиент бэкенда. Все авторизованные запросы
// подписываются Bearer-токеном из TokenSource.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
	}
}

// errorBody — тело ошибки в формате бэкенда
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, authenticated bool) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if authenticated {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", auth.BearerHeader(token))
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)

		if resp.StatusCode == http.StatusUnauthorized {
			if msg := eb.text(); msg != "" {
				return fmt.Errorf("%s: %w", msg, ErrUnauthorized)
			}
			return ErrUnauthorized
		}
		return &StatusError{Code: resp.StatusCode, Message: eb.text()}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

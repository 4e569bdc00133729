package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client talks to the appointment API over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// DefaultConfig returns the configuration used when flags are absent.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:8080",
		Timeout: 10 * time.Second,
	}
}

func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		client:  &http.Client{Timeout: config.Timeout},
		logger:  config.Logger,
	}
}

// Health checks the server's health endpoint. Any 2xx response is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Create registers one appointment and returns it with its assigned ID.
func (c *Client) Create(ctx context.Context, a Appointment) (Appointment, error) {
	var out Appointment
	if err := c.do(ctx, http.MethodPost, "/appointments", a, &out); err != nil {
		return Appointment{}, err
	}
	return out, nil
}

// List returns all appointments.
func (c *Client) List(ctx context.Context) ([]Appointment, error) {
	var out []Appointment
	if err := c.do(ctx, http.MethodGet, "/appointments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Clear deletes every appointment and returns how many were removed.
func (c *Client) Clear(ctx context.Context) (int64, error) {
	var out clearResponse
	if err := c.do(ctx, http.MethodDelete, "/appointments", nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	c.logger.Debug("api call", "method", method, "path", path, "status", resp.StatusCode)
	return nil
}

// Package remote talks to a running songid recognition server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

type Client struct {
	serviceURL string
	client     *http.Client
}

// New returns a client for the server at serviceURL. A zero timeout uses 30s.
func New(serviceURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		client:     &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// Recognize uploads the file at path and returns the server's recognition
// document untouched.
func (c *Client) Recognize(ctx context.Context, path string) (json.RawMessage, error) {
	audioData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL+"/recognize", bytes.NewReader(audioData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call recognition service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading recognition response: %w", err)
	}
	if !json.Valid(body) {
		return nil, errors.New("recognition service returned invalid JSON")
	}
	return json.RawMessage(body), nil
}

// Health reports whether the server answers its health probe.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serviceURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("recognition service unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("recognition service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// statusError prefers the server's own message over the bare status code.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return errors.New(payload.Message)
		}
		if payload.Error != "" {
			return errors.New(payload.Error)
		}
	}
	return fmt.Errorf("recognition service returned status %d", resp.StatusCode)
}

// Package client posts log records to a running collector.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/blogem/devlog-collector/models"
)

// TimestampLayout is the client-side timestamp format the mobile logger uses
const TimestampLayout = "2006-01-02 15:04:05.000"

// DefaultTimeout matches the mobile logger's connect/read timeouts
const DefaultTimeout = 5 * time.Second

// Client sends log records to a collector
type Client struct {
	baseURL    string
	httpClient *http.Client
	gzip       bool
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithGzip compresses request bodies
func WithGzip() Option {
	return func(c *Client) {
		c.gzip = true
	}
}

// New creates a client for the collector at baseURL, e.g. http://10.0.2.2:8081
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts one record to the collector's /log endpoint
func (c *Client) Send(ctx context.Context, record models.LogRecord) error {
	payload, err := json.Marshal(clientFields(record))
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	body := payload
	if c.gzip {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			return fmt.Errorf("failed to compress record: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to compress record: %w", err)
		}
		body = buf.Bytes()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/log", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("collector returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}

// clientFields drops the server-owned fields before sending
func clientFields(record models.LogRecord) map[string]interface{} {
	out := make(map[string]interface{}, len(record.Extra)+4)
	for k, v := range record.Extra {
		out[k] = v
	}
	out["timestamp"] = record.Timestamp
	out["level"] = record.Level
	out["tag"] = record.Tag
	out["message"] = record.Message
	return out
}

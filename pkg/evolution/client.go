package evolution

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

	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/config"
	pkgerrors "github.com/Maiconloureiro96-cyber/distribuidora/pkg/errors"
)

const (
	apiKeyHeader             = "apikey"
	responseBodyLimit  int64 = 4096
	defaultHTTPTimeout       = 30 * time.Second
)

var errInstanceRequired = errors.New("evolution instance name is required")

// Client wraps the Evolution API endpoints used to talk to WhatsApp.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	instance   string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the Evolution API client from configuration.
func NewClient(cfg config.EvolutionConfig, opts ...Option) (*Client, error) {
	instance := strings.TrimSpace(cfg.InstanceName)
	if instance == "" {
		return nil, errInstanceRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("evolution base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		instance:   instance,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// SendText delivers a plain text message to the given phone number.
func (c *Client) SendText(ctx context.Context, number, text string) error {
	path := fmt.Sprintf("/message/sendText/%s", c.instance)
	return c.post(ctx, path, sendTextRequest{Number: number, Text: text})
}

type markReadRequest struct {
	ReadMessages []string `json:"readMessages"`
}

// MarkMessageAsRead flags the inbound message as read on the WhatsApp side.
func (c *Client) MarkMessageAsRead(ctx context.Context, messageID string) error {
	path := fmt.Sprintf("/chat/markMessageAsRead/%s", c.instance)
	return c.post(ctx, path, markReadRequest{ReadMessages: []string{messageID}})
}

// ConnectionState probes the instance connection for health checks.
func (c *Client) ConnectionState(ctx context.Context) error {
	path := fmt.Sprintf("/instance/connectionState/%s", c.instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "evolution api request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	return pkgerrors.New(pkgerrors.CodeTransport,
		fmt.Sprintf("evolution api status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
}

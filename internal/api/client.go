// Package api implements the client for the chat endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/rs/zerolog/log"

	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/models"
)

// maxErrorBody caps how much of a failed response is kept for diagnostics
const maxErrorBody = 4096

// ChatClientInterface is what the widget needs from the chat backend
type ChatClientInterface interface {
	// Send posts messages and returns the reply text. An empty string with a
	// nil error means the server answered without content.
	Send(ctx context.Context, messages []models.Message) (string, error)
	// URL returns the full chat endpoint URL.
	URL() string
}

// Client talks to the chat endpoint over HTTP
type Client struct {
	httpClient tls_client.HttpClient
	baseURL    string
	endpoint   string
	headers    map[string]string
}

// Ensure Client implements ChatClientInterface
var _ ChatClientInterface = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient tls_client.HttpClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithEndpoint sets the chat endpoint path (default /api/chat)
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint == "" {
			return
		}
		if !strings.HasPrefix(endpoint, "/") {
			endpoint = "/" + endpoint
		}
		c.endpoint = endpoint
	}
}

// WithHeader adds a header to every request
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// NewClient creates a new Client for the server at baseURL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing host", baseURL)
	}

	client := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		endpoint: models.EndpointChat,
		headers:  models.DefaultHeaders(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		// No timeout: a request waits until the server answers or the transport fails.
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(0),
			tls_client.WithClientProfile(profiles.Chrome_120),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// URL returns the full chat endpoint URL
func (c *Client) URL() string {
	return c.baseURL + c.endpoint
}

// Close releases idle connections
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Send posts messages to the chat endpoint and returns the reply text
func (c *Client) Send(ctx context.Context, messages []models.Message) (string, error) {
	if len(messages) == 0 {
		return "", apierrors.ErrEmptyPrompt
	}

	endpoint := c.URL()

	payload, err := json.Marshal(models.ChatRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apierrors.NewNetworkError("send chat", endpoint, err)
	}
	defer func() {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	log.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("chat response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errorBody []byte
		if resp.Body != nil {
			errorBody, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		}
		return "", apierrors.NewHTTPError(resp.StatusCode, endpoint, string(errorBody))
	}

	if resp.Body == nil {
		return "", apierrors.NewParseError("empty response body", "")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apierrors.NewNetworkError("read chat response", endpoint, err)
	}

	return ParseResult(body)
}

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"evalgo.org/schemaeditor/internal/version"
	"evalgo.org/schemaeditor/models"
)

// Options configure a Client.
type Options struct {
	// Token is sent as a bearer token when set
	Token string

	// Timeout bounds each HTTP request (default 30s)
	Timeout time.Duration

	// ReconnectMin and ReconnectMax bound the push channel reconnect backoff
	ReconnectMin time.Duration
	ReconnectMax time.Duration

	Logger *zap.Logger
}

// Client talks to a schema backend over HTTP and a websocket push channel.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	dialer     *websocket.Dialer

	reconnectMin time.Duration
	reconnectMax time.Duration
	logger       *zap.Logger
}

var _ Backend = (*Client)(nil)

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url scheme %q", u.Scheme)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ReconnectMin <= 0 {
		opts.ReconnectMin = time.Second
	}
	if opts.ReconnectMax < opts.ReconnectMin {
		opts.ReconnectMax = 30 * opts.ReconnectMin
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Client{
		baseURL:    u,
		token:      opts.Token,
		httpClient: &http.Client{Timeout: opts.Timeout},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.Timeout,
		},
		reconnectMin: opts.ReconnectMin,
		reconnectMax: opts.ReconnectMax,
		logger:       opts.Logger.Named("backend"),
	}, nil
}

// ListSchemas returns the names of all schemas.
func (c *Client) ListSchemas(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.do(ctx, http.MethodGet, "/schemas", nil, &names); err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	return names, nil
}

// FetchSchemaState returns the stored resources of a schema.
func (c *Client) FetchSchemaState(ctx context.Context, name string) (*SchemaState, error) {
	var state SchemaState
	if err := c.do(ctx, http.MethodGet, "/schema/"+url.PathEscape(name), nil, &state); err != nil {
		return nil, fmt.Errorf("fetch schema %s: %w", name, err)
	}
	return &state, nil
}

// CreateSchema creates an empty schema.
func (c *Client) CreateSchema(ctx context.Context, name string) (*models.Resource, error) {
	var res models.Resource
	if err := c.do(ctx, http.MethodPut, "/schema/"+url.PathEscape(name), nil, &res); err != nil {
		return nil, fmt.Errorf("create schema %s: %w", name, err)
	}
	return &res, nil
}

// SubmitChanges sends a batch of entity mutations in one request.
func (c *Client) SubmitChanges(ctx context.Context, name string, changes []models.RequestModel) (*SubmitResult, error) {
	var result SubmitResult
	if err := c.do(ctx, http.MethodPost, "/schema/"+url.PathEscape(name), changes, &result); err != nil {
		return nil, fmt.Errorf("submit changes to %s: %w", name, err)
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.Get().UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// subscriptionURL turns the base URL into the websocket URL for a schema.
func (c *Client) subscriptionURL(name string) string {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/subscriptions/schema/" + name
	return u.String()
}

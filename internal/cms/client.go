package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/masthead/internal/content"
	"github.com/abdul-hamid-achik/masthead/internal/query"
	"github.com/abdul-hamid-achik/masthead/internal/version"
)

const (
	defaultDataset    = "production"
	defaultAPIVersion = "2023-05-03"
	defaultTimeout    = 15 * time.Second
	maxErrorBody      = 4096
)

// Fetcher executes a query descriptor and returns the projected items.
type Fetcher interface {
	Fetch(ctx context.Context, d query.Descriptor) ([]content.Item, error)
}

// Config holds connection settings for the query API.
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	UseCDN     bool
	// BaseURL overrides the host derived from ProjectID.
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns defaults for everything except the project.
func DefaultConfig() Config {
	return Config{
		Dataset:    defaultDataset,
		APIVersion: defaultAPIVersion,
		UseCDN:     true,
		Timeout:    defaultTimeout,
	}
}

// Client implements Fetcher over HTTP.
type Client struct {
	config   Config
	endpoint string
	client   *http.Client
}

// queryResponse is the success body of the query API.
type queryResponse struct {
	Query  string          `json:"query"`
	Result json.RawMessage `json:"result"`
	Ms     int             `json:"ms"`
}

// NewClient creates a new Client.
func NewClient(cfg Config) *Client {
	if cfg.Dataset == "" {
		cfg.Dataset = defaultDataset
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		host := "api.sanity.io"
		if cfg.UseCDN {
			host = "apicdn.sanity.io"
		}
		base = "https://" + cfg.ProjectID + "." + host
	}

	apiVersion := strings.TrimPrefix(cfg.APIVersion, "v")

	return &Client{
		config:   cfg,
		endpoint: base + "/v" + apiVersion + "/data/query/" + url.PathEscape(cfg.Dataset),
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Endpoint returns the query URL without arguments.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Fetch executes d and decodes the result into items.
func (c *Client) Fetch(ctx context.Context, d query.Descriptor) ([]content.Item, error) {
	raw, err := c.do(ctx, d)
	if err != nil {
		return nil, NewFetchError("fetch", err)
	}

	// A null result means nothing matched.
	if len(raw) == 0 || string(raw) == "null" {
		return []content.Item{}, nil
	}

	var items []content.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, NewFetchError("fetch", fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	if items == nil {
		items = []content.Item{}
	}
	return items, nil
}

// Ping checks that the query API answers for the configured dataset.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.do(ctx, query.BuildPing()); err != nil {
		return NewFetchError("ping", err)
	}
	return nil
}

// URL returns the full request URL for d.
func (c *Client) URL(d query.Descriptor) (string, error) {
	params, err := d.EncodedParams()
	if err != nil {
		return "", err
	}

	values := url.Values{}
	values.Set("query", d.GROQ())
	for name, value := range params {
		values.Set("$"+name, value)
	}
	return c.endpoint + "?" + values.Encode(), nil
}

// do performs a single query request and returns the raw result.
func (c *Client) do(ctx context.Context, d query.Descriptor) (json.RawMessage, error) {
	reqURL, err := c.URL(d)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCanceled
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(resp.StatusCode, body)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrCanceled
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return qr.Result, nil
}

// statusError classifies a non-200 response.
func statusError(status int, body []byte) error {
	var qe queryError
	if json.Unmarshal(body, &qe) == nil && qe.Error.Description != "" {
		if status >= 400 && status < 500 {
			return fmt.Errorf("%w: %s (%s)", ErrQueryRejected, qe.Error.Description, qe.Error.Type)
		}
		return fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, status, qe.Error.Description)
	}
	if status >= 500 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, status)
	}
	return fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, status, strings.TrimSpace(string(body)))
}

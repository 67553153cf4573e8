package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"herbarium/internal/cache"
	applog "herbarium/internal/log"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 4 << 20
	jsonAPIMediaType = "application/vnd.api+json"
)

// ErrNotFound is matched by errors.Is for 404 responses.
var ErrNotFound = errors.New("cms: resource not found")

// APIError describes a non-success response from the CMS.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cms: request failed with status %d", e.Status)
	}
	return fmt.Sprintf("cms: request failed with status %d: %s", e.Status, e.Message)
}

// UserMessage returns the CMS-supplied error text verbatim.
func (e *APIError) UserMessage() string {
	return e.Message
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Config describes how the CMS client should be initialised.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	SigningSecret string
	TokenTTL      time.Duration
	HTTPClient    *http.Client
	Cache         cache.Store
	CacheTTL      time.Duration
}

// Client reads content from the CMS JSON:API and posts contributions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *Signer
	cache      cache.Store
	cacheTTL   time.Duration
}

// NewClient builds a Client for the CMS at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("cms: base URL must not be empty")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("cms: invalid base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	var signer *Signer
	if strings.TrimSpace(cfg.SigningSecret) != "" {
		signer = NewSigner(cfg.SigningSecret, cfg.TokenTTL)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		signer:     signer,
		cache:      cfg.Cache,
		cacheTTL:   cfg.CacheTTL,
	}, nil
}

// getJSON issues a GET and decodes the body into out. When cacheable is set
// and a cache is configured, successful bodies are reused for cacheTTL.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, cacheable bool, out any) error {
	target := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	useCache := cacheable && c.cache != nil && c.cacheTTL > 0
	if useCache {
		if body, err := c.cache.Get(ctx, target); err == nil {
			applog.Debug(ctx, "cms cache hit", "url", target)
			return decodeBody(body, out)
		} else if !errors.Is(err, cache.ErrMiss) {
			applog.Error(ctx, "cms cache read failed", "error", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("cms: create request: %w", err)
	}
	req.Header.Set("Accept", jsonAPIMediaType+", application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}

	if useCache {
		if err := c.cache.Set(ctx, target, body, c.cacheTTL); err != nil {
			applog.Error(ctx, "cms cache write failed", "error", err)
		}
	}
	return decodeBody(body, out)
}

func (c *Client) postJSON(ctx context.Context, path string, bearer string, payload any, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("cms: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("cms: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return decodeBody(body, out)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	ctx := req.Context()
	started := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cms: execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("cms: read response: %w", err)
	}

	applog.Debug(ctx, "cms request completed",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration", time.Since(started).String(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

func decodeBody(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("cms: decode response: %w", err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} or the first JSON:API error.
func errorMessage(body []byte) string {
	var parsed struct {
		Error  any `json:"error"`
		Errors []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	switch v := parsed.Error.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if message, ok := v["message"].(string); ok {
			return strings.TrimSpace(message)
		}
	}
	for _, item := range parsed.Errors {
		if detail := strings.TrimSpace(item.Detail); detail != "" {
			return detail
		}
		if title := strings.TrimSpace(item.Title); title != "" {
			return title
		}
	}
	return ""
}

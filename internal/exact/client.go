package exact

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

	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/config"
)

// TokenSource yields a valid bearer token for the ERP API. The OAuth
// refresh machinery lives behind this interface.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token, useful for development and tests
type StaticTokenSource string

func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// Client is a division-scoped ExactOnline REST client
type Client struct {
	baseURL    string
	division   int
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new ExactOnline client
func NewClient(cfg config.ExactConfig, tokens TokenSource, logger *zap.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		baseURL:  baseURL,
		division: cfg.Division,
		tokens:   tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// odataList is the envelope ExactOnline wraps query results in
type odataList struct {
	D struct {
		Results json.RawMessage `json:"results"`
	} `json:"d"`
}

// odataSingle is the envelope around a created entity
type odataSingle struct {
	D json.RawMessage `json:"d"`
}

// Get performs an OData query against a division-scoped resource and
// decodes the result set into out (a slice pointer)
func (c *Client) Get(ctx context.Context, resource, filter, sel string, out interface{}) error {
	endpoint := fmt.Sprintf("%s/api/v1/%d/%s", c.baseURL, c.division, resource)

	params := url.Values{}
	if filter != "" {
		params.Set("$filter", filter)
	}
	if sel != "" {
		params.Set("$select", sel)
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	var envelope odataList
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(envelope.D.Results) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.D.Results, out); err != nil {
		return fmt.Errorf("failed to unmarshal results: %w", err)
	}

	return nil
}

// Post creates an entity and decodes the created representation into out
// when out is non-nil
func (c *Client) Post(ctx context.Context, resource string, payload, out interface{}) error {
	endpoint := fmt.Sprintf("%s/api/v1/%d/%s", c.baseURL, c.division, resource)

	body, err := c.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	var envelope odataSingle
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if err := json.Unmarshal(envelope.D, out); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}

	return nil
}

// Put updates an entity identified by its GUID
func (c *Client) Put(ctx context.Context, resource, guid string, payload interface{}) error {
	endpoint := fmt.Sprintf("%s/api/v1/%d/%s(guid'%s')", c.baseURL, c.division, resource, guid)

	_, err := c.do(ctx, http.MethodPut, endpoint, payload)
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("exact API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

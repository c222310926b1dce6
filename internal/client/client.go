package client

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

	"github.com/vanpelt/trainer/internal/models"
)

// APIError is a non-2xx response from the training server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
}

// Client talks to the training server's /api endpoints
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client for the server at baseURL (e.g. http://localhost:8080)
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https, got %q", baseURL)
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			// Checks run a script remotely and may take a while
			Timeout: 90 * time.Second,
		},
	}, nil
}

// BaseURL returns the server address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tabs fetches the tab configuration. Older servers return a bare list of
// tabs, which implies terminals are enabled.
func (c *Client) Tabs(ctx context.Context) (models.TabsResponse, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/tabs", &raw); err != nil {
		return models.TabsResponse{}, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var tabs []models.TabConfig
		if err := json.Unmarshal(trimmed, &tabs); err != nil {
			return models.TabsResponse{}, fmt.Errorf("failed to decode tabs: %w", err)
		}
		return models.TabsResponse{Tabs: tabs, TerminalEnabled: true}, nil
	}

	// terminalEnabled defaults to true when the field is absent
	var resp struct {
		Tabs            []models.TabConfig `json:"tabs"`
		TerminalEnabled *bool              `json:"terminalEnabled"`
	}
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return models.TabsResponse{}, fmt.Errorf("failed to decode tabs: %w", err)
	}
	out := models.TabsResponse{Tabs: resp.Tabs, TerminalEnabled: true}
	if resp.TerminalEnabled != nil {
		out.TerminalEnabled = *resp.TerminalEnabled
	}
	return out, nil
}

// Scenario fetches the scenario metadata
func (c *Client) Scenario(ctx context.Context) (models.Scenario, error) {
	var sc models.Scenario
	err := c.do(ctx, http.MethodGet, "/api/scenario", &sc)
	return sc, err
}

// Steps lists all steps without content
func (c *Client) Steps(ctx context.Context) ([]models.Step, error) {
	var steps []models.Step
	err := c.do(ctx, http.MethodGet, "/api/steps", &steps)
	return steps, err
}

// Step fetches one step with its markdown content
func (c *Client) Step(ctx context.Context, number int) (models.Step, error) {
	var step models.Step
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/steps/%d", number), &step)
	return step, err
}

// Check runs a step's check script on the server
func (c *Client) Check(ctx context.Context, number int) (models.CheckResult, error) {
	var result models.CheckResult
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/steps/%d/check", number), &result)
	return result, err
}

// Health fetches the server health
func (c *Client) Health(ctx context.Context) (models.HealthResponse, error) {
	var health models.HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", &health)
	return health, err
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr models.ErrorResponse
		if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error == "" {
			return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

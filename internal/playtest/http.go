package playtest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/synaptic/internal/adapters/http/api"
	"github.com/okian/synaptic/internal/domain/cognition"
)

// Client wraps http.Client with the service's base URL.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends a request and returns the response. The caller closes the body.
func (c *Client) do(ctx context.Context, method, path, key string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if key != "" {
		req.Header.Set(api.IdempotencyKeyHeader, key)
	}
	return c.client.Do(req)
}

// getJSON decodes the body of a GET into v.
func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// Health checks the service is up.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", "")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Any 200 is healthy; the body is Prometheus metrics.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// Feed posts a feed action (connect, simulate or disconnect) and returns
// the resulting feed state.
func (c *Client) Feed(ctx context.Context, action string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/feed/"+action, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		State   string `json:"state"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode feed response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("feed %s: %s: %s", action, body.Code, body.Message)
	}
	return body.State, nil
}

// ClearAdversaries removes every adversary and returns how many there were.
func (c *Client) ClearAdversaries(ctx context.Context) (int, error) {
	resp, err := c.do(ctx, http.MethodDelete, "/adversaries", "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var body struct {
		Cleared int `json:"cleared"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode clear response: %w", err)
	}
	return body.Cleared, nil
}

// Abilities lists the abilities and their cooldowns.
func (c *Client) Abilities(ctx context.Context) ([]AbilityInfo, error) {
	var out []AbilityInfo
	if err := c.getJSON(ctx, "/abilities", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Activate casts an ability. key is sent as the Idempotency-Key when set.
func (c *Client) Activate(ctx context.Context, abilityID, key string) (ActivationResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/abilities/"+abilityID+"/activate", key)
	if err != nil {
		return ActivationResponse{}, err
	}
	defer resp.Body.Close()

	var out ActivationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ActivationResponse{}, fmt.Errorf("decode activation response: %w", err)
	}
	if out.Status == "" {
		out.Status = out.Code
	}
	return out, nil
}

// Snapshot fetches the current cognition snapshot.
func (c *Client) Snapshot(ctx context.Context) (cognition.Snapshot, error) {
	var out cognition.Snapshot
	err := c.getJSON(ctx, "/snapshot", &out)
	return out, err
}

// Adversaries counts the live adversaries.
func (c *Client) Adversaries(ctx context.Context) (int, error) {
	var out []json.RawMessage
	if err := c.getJSON(ctx, "/adversaries", &out); err != nil {
		return 0, err
	}
	return len(out), nil
}

// Export copies the encoded research report to w.
func (c *Client) Export(ctx context.Context, format string, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodGet, "/export?format="+format, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("export: status %d", resp.StatusCode)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

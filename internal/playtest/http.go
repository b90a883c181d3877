package playtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/roshambo/internal/adapters/http/api"
	service "github.com/okian/roshambo/internal/app"
)

// HTTPClient talks to the game API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, want int, out any) error {
	return c.doWithHeader(ctx, method, path, nil, body, want, out)
}

func (c *HTTPClient) doWithHeader(ctx context.Context, method, path string, header http.Header, body any, want int, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

func (c *HTTPClient) createSession(ctx context.Context, player string) (service.Snapshot, error) {
	var snap service.Snapshot
	err := c.do(ctx, http.MethodPost, "/sessions", map[string]string{"player": player}, http.StatusCreated, &snap)
	return snap, err
}

func (c *HTTPClient) session(ctx context.Context, id string) (service.Snapshot, error) {
	var snap service.Snapshot
	err := c.do(ctx, http.MethodGet, "/sessions/"+id, nil, http.StatusOK, &snap)
	return snap, err
}

// play sends a round. With viaHeader set the round id travels in the
// Idempotency-Key header instead of the body.
func (c *HTTPClient) play(ctx context.Context, id, roundID, mv string, viaHeader bool) (service.PlayResult, error) {
	var res service.PlayResult
	body := map[string]string{"move": mv}
	var header http.Header
	if viaHeader {
		header = http.Header{}
		header.Set(api.IdempotencyHeader, roundID)
	} else {
		body["round_id"] = roundID
	}
	err := c.doWithHeader(ctx, http.MethodPost, "/sessions/"+id+"/rounds", header, body, http.StatusOK, &res)
	return res, err
}

func (c *HTTPClient) endSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, http.StatusNoContent, nil)
}

// stats fetches /stats. It is informational and never fails the run.
func (c *HTTPClient) stats(ctx context.Context) map[string]any {
	out := map[string]any{}
	if err := c.do(ctx, http.MethodGet, "/stats", nil, http.StatusOK, &out); err != nil {
		return nil
	}
	return out
}

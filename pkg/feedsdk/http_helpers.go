package feedsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/postboard/pkg/httpx"
	"github.com/aussiebroadwan/postboard/pkg/idx"
	"github.com/aussiebroadwan/postboard/pkg/slogx"
)

// PendingRequest is an outbound call captured in full so it can be replayed
// after a refresh. The body is held as bytes for that reason. A request is
// replayed at most once; retried records that it already was.
type PendingRequest struct {
	ID     idx.ID
	Method string
	Path   string
	Body   []byte
	Header http.Header

	retried bool
}

// Retried reports whether the request has been replayed after a refresh.
func (p *PendingRequest) Retried() bool { return p.retried }

// newPendingRequest builds a request, JSON-encoding body when non-nil.
func newPendingRequest(method, path string, body any) (*PendingRequest, error) {
	pr := &PendingRequest{
		ID:     idx.New(),
		Method: method,
		Path:   path,
		Header: make(http.Header),
	}

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		pr.Body = b
		pr.Header.Set("Content-Type", "application/json")
	}

	return pr, nil
}

// endpoint names the request for errors and logs, e.g. "GET /posts".
func (p *PendingRequest) endpoint() string { return p.Method + " " + p.Path }

// url builds a complete URL by appending the path to the base URL.
func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

func (c *SDKClient) logger(ctx context.Context) *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slogx.FromContext(ctx)
}

// do sends pr once. token, when non-empty, is attached as a bearer
// credential. No retry logic lives here.
func (c *SDKClient) do(ctx context.Context, pr *PendingRequest, token string) (*http.Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
		}
	}

	var body io.Reader
	if pr.Body != nil {
		body = bytes.NewReader(pr.Body)
	}

	req, err := http.NewRequestWithContext(ctx, pr.Method, c.url(pr.Path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range pr.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", pr.ID.String())
	if token != "" {
		httpx.SetBearer(req.Header, token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %w", ErrTransport, err)
	}

	return resp, nil
}

// readData reads resp fully and returns the payload with any {"data": ...}
// envelope removed. Non-2xx statuses become *APIError. An empty body yields
// nil, nil.
func readData(resp *http.Response, endpoint string) (json.RawMessage, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseErrorResponse(resp, body)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, &DecodeError{Endpoint: endpoint, Err: fmt.Errorf("body is not valid JSON")}
	}

	// Only objects can be envelopes; bare arrays and scalars pass through.
	if body[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
			return env.Data, nil
		}
	}

	return body, nil
}

// decodeData reads resp and unmarshals its payload into target. A missing
// body is a DecodeError.
func decodeData(resp *http.Response, endpoint string, target any) error {
	raw, err := readData(resp, endpoint)
	if err != nil {
		return err
	}
	if raw == nil {
		return &DecodeError{Endpoint: endpoint, Err: fmt.Errorf("empty response body")}
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return &DecodeError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// decodeOptional is decodeData for endpoints that may answer with no body.
// It reports whether target was filled.
func decodeOptional(resp *http.Response, endpoint string, target any) (bool, error) {
	raw, err := readData(resp, endpoint)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return false, &DecodeError{Endpoint: endpoint, Err: err}
	}
	return true, nil
}

// checkStatus drains resp and returns an *APIError for non-2xx statuses.
func checkStatus(resp *http.Response, endpoint string) error {
	_, err := readData(resp, endpoint)
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		// Body shape is irrelevant when the caller only wants the status.
		return nil
	}
	return err
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

package slogx

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport is an http.RoundTripper that logs every outbound request at debug
// level, and failures at warn. The logger is taken from the request context
// when present, falling back to Base.
type Transport struct {
	Base   *slog.Logger
	Next   http.RoundTripper
	Header string // request id header, defaults to X-Request-ID
}

// NewTransport wraps next (http.DefaultTransport when nil).
func NewTransport(base *slog.Logger, next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{Base: base, Next: next, Header: "X-Request-ID"}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	logger := t.Base
	if l, ok := req.Context().Value(ctxKey{}).(*slog.Logger); ok {
		logger = l
	}
	if logger == nil {
		logger = slog.Default()
	}

	header := t.Header
	if header == "" {
		header = "X-Request-ID"
	}

	logger = logger.With(
		"req_id", req.Header.Get(header),
		"method", req.Method,
		"path", req.URL.Path,
	)

	resp, err := t.Next.RoundTrip(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		logger.Warn("http_request_failed", "duration_ms", duration, "err", err)
		return nil, err
	}

	logger.Debug("http_request",
		"status", resp.StatusCode,
		"duration_ms", duration,
	)
	return resp, nil
}

package http_client

import (
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	DefaultTimeout  = 10 * time.Second
	RequestIDHeader = "X-Request-ID"
)

// CreateHTTPClient returns a client with pooled connections and the given
// overall request timeout. A non-positive timeout uses DefaultTimeout. When
// logger is non-nil every round trip is logged at debug level.
func CreateHTTPClient(timeout time.Duration, logger *slog.Logger) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tr := &http.Transport{
		MaxIdleConns:          20,
		MaxConnsPerHost:       20,
		IdleConnTimeout:       30 * time.Second,
		DisableCompression:    false,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	var rt http.RoundTripper = tr
	if logger != nil {
		rt = &LoggingTransport{Base: tr, Log: logger}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}

// LoggingTransport logs method, URL, status, request id and duration of each
// outbound request.
type LoggingTransport struct {
	Base http.RoundTripper
	Log  *slog.Logger
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	start := time.Now()
	resp, err := base.RoundTrip(req)
	attrs := []any{
		"method", req.Method,
		"url", req.URL.String(),
		"request_id", req.Header.Get(RequestIDHeader),
		"duration", time.Since(start),
	}
	if err != nil {
		t.Log.Debug("outbound request failed", append(attrs, "error", err)...)
		return resp, err
	}
	t.Log.Debug("outbound request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}

// Package inference talks to the remote classification and recommendation services.
package inference

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	maxResponseBytes = 1 << 20
	requestIDHeader  = "X-Request-ID"
)

type requestIDKey struct{}

// WithRequestID attaches a correlation ID that outgoing requests carry in X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ClientConfig holds what both service clients need.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	HTTP    *http.Client
	Logger  zerolog.Logger
}

type client struct {
	base   string
	httpc  *http.Client
	logger zerolog.Logger
}

func newClient(cfg ClientConfig, component string) (client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return client{}, fmt.Errorf("base url is empty")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return client{}, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	httpc := cfg.HTTP
	if httpc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpc = &http.Client{Timeout: timeout}
	}

	return client{
		base:   base,
		httpc:  httpc,
		logger: cfg.Logger.With().Str("component", component).Logger(),
	}, nil
}

func (c client) do(req *http.Request) (*http.Response, []byte, error) {
	if id := requestID(req.Context()); id != "" {
		req.Header.Set(requestIDHeader, id)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("request failed")
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}

	c.logger.Debug().
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Str("request_id", requestID(req.Context())).
		Msg("request completed")

	return resp, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

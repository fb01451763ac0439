// Package api is the HTTP client for the snipe backend functions.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is requests per second across all endpoints.
	DefaultRateLimit = 10

	userAgent = "snipe-cli/1.0"

	userIDHeader = "X-User-Id"
)

// Credentials identify the signed-in user to the backend.
type Credentials struct {
	UserID  string
	IDToken string
}

// Client talks to the backend functions. It is safe for concurrent use.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	logger     logrus.FieldLogger
	limiter    *rate.Limiter

	mu       sync.RWMutex
	onExpiry []func(error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a logger.
func WithLogger(l logrus.FieldLogger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithRateLimit sets requests per second. Zero or less disables limiting.
func WithRateLimit(rps int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	}
}

// WithSessionExpiredHandler registers fn to be told when the upstream Resy
// session has expired.
func WithSessionExpiredHandler(fn func(error)) ClientOption {
	return func(c *Client) { c.onExpiry = append(c.onExpiry, fn) }
}

// New creates a client for the functions under baseURL.
func New(baseURL string, creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logrus.StandardLogger(),
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserID returns the configured user.
func (c *Client) UserID() string { return c.creds.UserID }

// OnSessionExpired registers another session-expired handler.
func (c *Client) OnSessionExpired(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpiry = append(c.onExpiry, fn)
}

func (c *Client) notifyExpired(err error) {
	c.mu.RLock()
	handlers := make([]func(error), len(c.onExpiry))
	copy(handlers, c.onExpiry)
	c.mu.RUnlock()
	for _, fn := range handlers {
		fn(err)
	}
}

// envelope is the {success, data, error} wrapper every function returns.
// Pagination sometimes rides next to data instead of inside it.
type envelope struct {
	Success    *bool           `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      json.RawMessage `json:"error"`
	Message    string          `json:"message"`
	Pagination json.RawMessage `json:"pagination"`
}

func (e envelope) errorText() string {
	if len(e.Error) > 0 {
		var s string
		if err := json.Unmarshal(e.Error, &s); err == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(e.Error, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
	}
	return e.Message
}

// do performs a request and returns the decoded envelope. fallback is the
// message used when the backend gives none.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, fallback string) (envelope, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return envelope{}, err
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return envelope{}, fmt.Errorf("encode %s body: %w", path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return envelope{}, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("user-agent", userAgent)
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	if c.creds.IDToken != "" {
		req.Header.Set("authorization", "Bearer "+c.creds.IDToken)
	}
	if c.creds.UserID != "" {
		req.Header.Set(userIDHeader, c.creds.UserID)
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"method": method, "path": path}).WithError(err).Warn("api: transport error")
		return envelope{}, &APIError{Message: fallback, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return envelope{}, &APIError{Status: res.StatusCode, Message: fallback, Err: err}
	}
	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   res.StatusCode,
		"duration": time.Since(start),
	}).Debug("api: request")

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if sessionExpired(res.StatusCode, raw) {
		msg := env.errorText()
		if msg == "" {
			msg = "Resy session expired; reconnect your Resy account"
		}
		apiErr := &APIError{Status: res.StatusCode, Message: msg, Err: ErrSessionExpired}
		c.notifyExpired(apiErr)
		return envelope{}, apiErr
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := env.errorText()
		if msg == "" {
			msg = fallback
		}
		return envelope{}, &APIError{Status: res.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		if !json.Valid(raw) {
			return envelope{}, &APIError{Status: res.StatusCode, Message: fallback, Err: decodeErr}
		}
		// A bare array or scalar.
		return envelope{Data: raw}, nil
	}
	if env.Success == nil {
		// Not wrapped; treat the whole body as data.
		env.Data = raw
		return env, nil
	}
	if !*env.Success {
		msg := env.errorText()
		if msg == "" {
			msg = fallback
		}
		return envelope{}, &APIError{Status: res.StatusCode, Message: msg}
	}
	return env, nil
}

// call performs a request and decodes data into out (which may be nil).
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any, fallback string) error {
	env, err := c.do(ctx, method, path, query, body, fallback)
	if err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{Message: fallback, Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	return nil
}

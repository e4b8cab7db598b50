// Package api is the HTTP client of the reservation backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"booktable/internal/cache"
	"booktable/internal/metrics"
)

const (
	// SessionCookie carries the access token on every request.
	SessionCookie = "api-token"

	RequestIDHeader = "X-Request-ID"

	statusFailure = "failure"
	maxBodyBytes  = 8 << 20
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// APIError is a failed backend call. Message is the backend's own text,
// empty when it sent none.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: http %d", e.Method, e.Path, e.StatusCode)
}

// BackendMessage returns the message the backend put in its response.
func (e *APIError) BackendMessage() string { return e.Message }

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// envelope wraps every backend response.
type envelope struct {
	Data         json.RawMessage `json:"data"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"errorMessage"`
	Message      string          `json:"message"`
}

// message digs the human readable error out of a failure envelope.
func (e *envelope) message() string {
	if len(e.Data) > 0 {
		var s string
		if err := json.Unmarshal(e.Data, &s); err == nil && s != "" {
			return s
		}
		var obj struct {
			Message      string `json:"message"`
			ErrorMessage string `json:"errorMessage"`
		}
		if err := json.Unmarshal(e.Data, &obj); err == nil {
			if obj.ErrorMessage != "" {
				return obj.ErrorMessage
			}
			if obj.Message != "" {
				return obj.Message
			}
		}
	}
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	return e.Message
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit caps requests per second. Zero means unlimited.
	RateLimit float64
	Burst     int
	// Token seeds the session cookie.
	Token string

	// Cache backs restaurant detail lookups when set.
	Cache         cache.Cache
	RestaurantTTL time.Duration

	Transport http.RoundTripper
	Logger    *zerolog.Logger
}

// Client talks JSON to the backend with cookie-based session credentials.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        http.CookieJar
	limiter    *rate.Limiter

	cache         cache.Cache
	restaurantTTL time.Duration

	logger *zerolog.Logger
}

// New constructs a client for opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "api-client").Str("base_url", base.String()).Logger()

	c := &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: otelhttp.NewTransport(transport),
		},
		jar:           jar,
		limiter:       limiter,
		cache:         opts.Cache,
		restaurantTTL: opts.RestaurantTTL,
		logger:        &l,
	}
	if opts.Token != "" {
		c.SetToken(opts.Token)
	}
	return c, nil
}

// SetToken replaces the session cookie. An empty token clears it.
func (c *Client) SetToken(token string) {
	cookie := &http.Cookie{Name: SessionCookie, Value: token, Path: "/"}
	if token == "" {
		cookie.MaxAge = -1
	}
	c.jar.SetCookies(c.baseURL, []*http.Cookie{cookie})
}

// Token returns the current session cookie value.
func (c *Client) Token() string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == SessionCookie {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) doGet(ctx context.Context, route, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, route, path, query, nil, out)
}

func (c *Client) doPost(ctx context.Context, route, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, route, path, nil, body, out)
}

func (c *Client) doPut(ctx context.Context, route, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, route, path, nil, body, out)
}

func (c *Client) doDelete(ctx context.Context, route, path string, out any) error {
	return c.do(ctx, http.MethodDelete, route, path, nil, nil, out)
}

// do sends one request. route is the path template used as a metric label.
func (c *Client) do(ctx context.Context, method, route, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s %s: rate limit: %w", method, path, err)
	}

	endpoint := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	c.addHeaders(req, requestID, body != nil)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(method, route, 0, time.Since(start))
		c.logger.Warn().Err(err).Str("request_id", requestID).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.ObserveAPIRequest(method, route, resp.StatusCode, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("backend call")

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 300 || (decodeErr == nil && env.Status == statusFailure) {
		apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.message()
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, decodeErr)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request, requestID string, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.cache == nil || c.restaurantTTL <= 0 {
		return false
	}
	ok, err := c.cache.Get(ctx, key, out)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read")
		return false
	}
	return ok
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.cache == nil || c.restaurantTTL <= 0 {
		return
	}
	if err := c.cache.Put(ctx, key, val, c.restaurantTTL); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write")
	}
}

func (c *Client) dropCache(ctx context.Context, key string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, key); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache delete")
	}
}

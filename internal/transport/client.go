// Package transport wraps outbound HTTP with the retry policy every
// remote call in the pipeline shares: exponential backoff on network
// and server failures, fixed-delay polling on 202, Retry-After-aware
// throttling on 429, and no retry at all on other 4xx.
package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kallio/physync/pkg/logger"
	"github.com/kallio/physync/pkg/metrics"
)

const (
	defaultTimeout    = 60 * time.Second
	responseLogLimit  = 512
	payloadHashPrefix = 8
)

// HeaderProvider supplies per-call headers. The source API regenerates
// its bearer token on every call, so headers cannot be static.
type HeaderProvider func() (map[string]string, error)

// Response is the wire-level result handed back to callers. Callers
// own status handling; only transport-level failures surface as errors.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// OK reports whether the response carries a 200 status.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeBody, err)
	}
	return nil
}

// Client is a retry-aware HTTP client bound to one API base URL.
type Client struct {
	rc      *resty.Client
	policy  Policy
	headers HeaderProvider
	sleep   func(time.Duration)
	log     logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithPolicy replaces the default retry policy.
func WithPolicy(p Policy) Option {
	return func(c *Client) {
		if p.MaxAttempts > 0 {
			c.policy = p
		}
	}
}

// WithHeaderProvider sets the per-call header source.
func WithHeaderProvider(hp HeaderProvider) Option {
	return func(c *Client) {
		if hp != nil {
			c.headers = hp
		}
	}
}

// WithBasicAuth sets static Basic-Auth credentials on every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.rc.SetBasicAuth(username, password)
	}
}

// WithTimeout bounds each individual HTTP call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.rc.SetTimeout(d)
		}
	}
}

// WithTransport injects a custom RoundTripper, for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.rc.SetTransport(rt)
		}
	}
}

// WithSleep overrides the blocking sleep between attempts, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithLogger sets the logger used for per-call diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a Client for the given API root.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		rc: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		policy: DefaultPolicy(),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get()
	}
	return c
}

// Get performs a GET with query parameters under the retry policy.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST with a JSON body under the retry policy.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, query, body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	var (
		lastResp *Response
		lastErr  error
	)

	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		req := c.rc.R().SetContext(ctx)
		if query != nil {
			req.SetQueryParamsFromValues(query)
		}
		if body != nil {
			req.SetBody(body)
		}

		if c.headers != nil {
			headers, err := c.headers()
			if err != nil {
				return nil, err
			}
			req.SetHeaders(headers)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			lastErr = err
			d := c.policy.DecideError(attempt)
			c.logAttempt(ctx, method, path, req, nil, attempt, err)
			if !d.Retry {
				break
			}
			metrics.RecordHTTPRetry(d.Reason)
			c.sleep(d.Wait)
			continue
		}

		lastErr = nil
		lastResp = &Response{
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
			Header:     resp.Header(),
		}
		c.logAttempt(ctx, method, path, req, lastResp, attempt, nil)
		metrics.RecordHTTPRequest(c.host(), method, strconv.Itoa(lastResp.StatusCode))

		d := c.policy.DecideStatus(attempt, lastResp.StatusCode, resp.Header().Get("Retry-After"))
		if !d.Retry || d.Reason == "" {
			// Terminal: success, non-retryable status, or retries exhausted.
			// An exhausted retry budget returns the last response as-is so
			// the caller can see the non-200 status.
			return lastResp, nil
		}
		metrics.RecordHTTPRetry(d.Reason)
		c.sleep(d.Wait)
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrExhausted, lastErr)
	}
	return lastResp, nil
}

func (c *Client) host() string {
	if u, err := url.Parse(c.rc.BaseURL); err == nil {
		return u.Host
	}
	return c.rc.BaseURL
}

// logAttempt emits the structured per-call diagnostic line. Auth
// headers are redacted; the payload appears as a hash plus length.
func (c *Client) logAttempt(ctx context.Context, method, path string, req *resty.Request, resp *Response, attempt int, err error) {
	fields := []logger.Field{
		logger.String("method", method),
		logger.String("url", c.rc.BaseURL+path),
		logger.String("headers", redactHeaders(req.Header)),
		logger.Int("attempt", attempt),
	}
	if body, ok := req.Body.([]byte); ok {
		fields = append(fields, logger.String("payload", hashPayload(body)))
	} else if req.Body != nil {
		if raw, merr := json.Marshal(req.Body); merr == nil {
			fields = append(fields, logger.String("payload", hashPayload(raw)))
		}
	}
	switch {
	case err != nil:
		fields = append(fields, logger.Error(err))
		c.log.Warn(ctx, "http call failed", fields...)
	default:
		fields = append(fields,
			logger.Int("status", resp.StatusCode),
			logger.String("body", truncate(resp.Body, responseLogLimit)),
		)
		c.log.Debug(ctx, "http call", fields...)
	}
}

func redactHeaders(h http.Header) string {
	redacted := make(url.Values, len(h))
	for name := range h {
		switch http.CanonicalHeaderKey(name) {
		case "Authorization", "X-Api-Key":
			redacted.Set(name, "<redacted>")
		default:
			redacted.Set(name, h.Get(name))
		}
	}
	return redacted.Encode()
}

func hashPayload(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:payloadHashPrefix]) + "/" + strconv.Itoa(len(body)) + "B"
}

func truncate(body []byte, limit int) string {
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}

// Package api is the single point of communication with the MineAdmin
// backend. Every request carries the session cookie, and every failure is
// normalized into *Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/MineAdmin/internal/client/storage"
)

// DefaultLoginRoute is where the client navigates after a 401.
const DefaultLoginRoute = "/login"

// SessionJar is the cookie jar the client sends credentials from.
type SessionJar interface {
	http.CookieJar
	// HasSession reports whether a session credential is present.
	HasSession() bool
	// ClearSession drops the session credential.
	ClearSession()
}

// Navigator moves the user interface between routes.
type Navigator interface {
	Route() string
	Navigate(route string)
}

// RequestConfig is the outgoing request as seen by request interceptors.
type RequestConfig struct {
	Method string
	URL    string
	Header http.Header
	Query  url.Values
	Body   any
}

// RequestInterceptor may mutate the outgoing request. Returning an error
// aborts the call.
type RequestInterceptor func(ctx context.Context, cfg *RequestConfig) error

// ResponseInterceptor may mutate the parsed response.
type ResponseInterceptor func(ctx context.Context, resp *Response) error

// RequestOptions describes a call to Request.
type RequestOptions struct {
	Method string
	Header http.Header
	Query  url.Values
	// Body is JSON-encoded unless it is a *Multipart.
	Body any
}

// Response is a successful, parsed response.
type Response struct {
	Status int
	Header http.Header
	// JSON is set when the response content type is JSON.
	JSON json.RawMessage
	// Text is set for text/* responses.
	Text string
}

// Empty reports whether the response carried no body.
func (r *Response) Empty() bool {
	return len(r.JSON) == 0 && r.Text == ""
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.JSON) == 0 {
		return errors.New("response has no JSON body")
	}
	return json.Unmarshal(r.JSON, v)
}

// Client issues requests against the backend.
type Client struct {
	baseURL    string
	http       *http.Client
	jar        SessionJar
	nav        Navigator
	loginRoute string
	retry      RetryPolicy
	log        *zap.Logger

	mu             sync.RWMutex
	reqInterceptor []RequestInterceptor
	resInterceptor []ResponseInterceptor
	onUnauthorized []func()

	navMu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Jar is replaced
// by the client's session jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithJar sets the session cookie jar.
func WithJar(jar SessionJar) Option {
	return func(c *Client) { c.jar = jar }
}

// WithNavigator sets where 401 redirects go.
func WithNavigator(nav Navigator) Option {
	return func(c *Client) { c.nav = nav }
}

// WithLoginRoute overrides DefaultLoginRoute.
func WithLoginRoute(route string) Option {
	return func(c *Client) { c.loginRoute = route }
}

// WithRetryPolicy enables bounded retries for idempotent requests.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL:    baseURL,
		loginRoute: DefaultLoginRoute,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.jar == nil {
		jar, err := storage.NewCookieJar(baseURL, "")
		if err != nil {
			return nil, err
		}
		c.jar = jar
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	hc := *c.http
	hc.Jar = c.jar
	c.http = &hc
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// HasSession reports whether the session cookie is present.
func (c *Client) HasSession() bool { return c.jar.HasSession() }

// UseRequest appends a request interceptor.
func (c *Client) UseRequest(fn RequestInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqInterceptor = append(c.reqInterceptor, fn)
}

// UseResponse appends a response interceptor.
func (c *Client) UseResponse(fn ResponseInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resInterceptor = append(c.resInterceptor, fn)
}

// OnUnauthorized registers fn to run whenever a response is 401.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
}

// Request sends a request to endpoint, relative to the base URL.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions) (*Response, error) {
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}
	if c.retry.enabled() && idempotent(opts.Method) {
		return c.retry.run(ctx, c.log, func() (*Response, error) {
			return c.do(ctx, endpoint, opts)
		})
	}
	return c.do(ctx, endpoint, opts)
}

func (c *Client) do(ctx context.Context, endpoint string, opts RequestOptions) (*Response, error) {
	cfg := &RequestConfig{
		Method: opts.Method,
		URL:    c.baseURL + endpoint,
		Header: opts.Header.Clone(),
		Query:  opts.Query,
		Body:   opts.Body,
	}
	if cfg.Header == nil {
		cfg.Header = make(http.Header)
	}

	c.mu.RLock()
	reqInterceptors := append([]RequestInterceptor(nil), c.reqInterceptor...)
	resInterceptors := append([]ResponseInterceptor(nil), c.resInterceptor...)
	c.mu.RUnlock()

	for _, fn := range reqInterceptors {
		if err := fn(ctx, cfg); err != nil {
			return nil, hookError(err)
		}
	}

	req, err := buildRequest(ctx, cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", cfg.Method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	c.log.Debug("request completed",
		zap.String("method", cfg.Method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	out, payload, err := readResponse(resp)
	if err != nil {
		return nil, networkError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpError(resp.StatusCode, payload)
	}

	for _, fn := range resInterceptors {
		if err := fn(ctx, out); err != nil {
			return nil, hookError(err)
		}
	}
	return out, nil
}

func buildRequest(ctx context.Context, cfg *RequestConfig) (*http.Request, error) {
	u := cfg.URL
	if len(cfg.Query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + cfg.Query.Encode()
	}

	var body io.Reader
	switch b := cfg.Body.(type) {
	case nil:
	case *Multipart:
		r, contentType, err := b.encode()
		if err != nil {
			return nil, invalid("invalid multipart body: %v", err)
		}
		body = r
		cfg.Header.Set("Content-Type", contentType)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, invalid("invalid request body: %v", err)
		}
		body = bytes.NewReader(data)
	}

	if _, ok := cfg.Body.(*Multipart); !ok && cfg.Header.Get("Content-Type") == "" {
		cfg.Header.Set("Content-Type", "application/json")
	}
	if cfg.Header.Get("Accept") == "" {
		cfg.Header.Set("Accept", "application/json")
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, u, body)
	if err != nil {
		return nil, invalid("invalid request: %v", err)
	}
	req.Header = cfg.Header
	return req, nil
}

// readResponse parses the body according to its content type. payload is
// the decoded value used for error messages.
func readResponse(resp *http.Response) (*Response, any, error) {
	out := &Response{Status: resp.StatusCode, Header: resp.Header}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil, nil
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		var payload any
		if err := json.Unmarshal(data, &payload); err != nil {
			// Malformed JSON is surfaced as text so the caller still sees it.
			out.Text = string(data)
			return out, out.Text, nil
		}
		out.JSON = json.RawMessage(data)
		return out, payload, nil
	case strings.HasPrefix(mediaType, "text/"):
		out.Text = string(data)
		return out, out.Text, nil
	default:
		return out, nil, nil
	}
}

func (c *Client) handleUnauthorized() {
	c.jar.ClearSession()

	c.mu.RLock()
	listeners := append([]func(){}, c.onUnauthorized...)
	c.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}

	if c.nav == nil {
		return
	}
	c.navMu.Lock()
	defer c.navMu.Unlock()
	if c.nav.Route() == c.loginRoute {
		return
	}
	c.log.Info("session expired, redirecting to login", zap.String("from", c.nav.Route()))
	c.nav.Navigate(c.loginRoute)
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

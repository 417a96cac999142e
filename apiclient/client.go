// Package apiclient is the request pipeline every ClingClang API call goes
// through. It attaches the bearer credential from the session store, tells
// transport failures apart from application errors, and recovers from an
// expired access token with exactly one shared refresh followed by a replay.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/clingclang/clingclang/events"
	"github.com/clingclang/clingclang/metrics"
	"github.com/clingclang/clingclang/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseBody = 10 << 20
)

// Client sends API requests on behalf of the current session. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	jar        http.CookieJar
	store      *session.Store
	bus        *events.Bus
	logger     zerolog.Logger
	refresher  Refresher

	refreshGroup singleflight.Group
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. WithTimeout and
// WithCookieJar have no effect when it is used.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the fixed per-request wall clock limit
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithCookieJar sets the jar holding the refresh token cookie
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.jar = jar
	}
}

// WithLogger sets the pipeline logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRefresher replaces the call that mints a new access token
func WithRefresher(refresher Refresher) Option {
	return func(c *Client) {
		c.refresher = refresher
	}
}

// New creates a Client for the API at baseURL (scheme and host, optionally a
// path prefix). The store and bus are shared with the rest of the application.
func New(baseURL string, store *session.Store, bus *events.Bus, options ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("[apiclient New] session store is required")
	}
	if bus == nil {
		return nil, errors.New("[apiclient New] event bus is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[apiclient New] invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		timeout: defaultTimeout,
		store:   store,
		bus:     bus,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}

	if c.httpClient == nil {
		if c.jar == nil {
			c.jar, _ = cookiejar.New(nil)
		}
		c.httpClient = &http.Client{Timeout: c.timeout, Jar: c.jar}
	}
	if c.refresher == nil {
		c.refresher = c.refreshFromCookie
	}
	return c, nil
}

// Do sends req through the pipeline. On a non-2xx response both the response
// and an *ApplicationError are returned.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || req.Method == "" || !strings.HasPrefix(req.Path, "/") {
		return nil, errors.New("[apiclient Do] request needs a method and an absolute path")
	}

	// Read fresh on every call; a sibling request may have rotated it.
	credential, _ := c.store.Credential()

	resp, err := c.send(ctx, req, credential)
	if err != nil {
		return nil, c.sendFailed(ctx, err)
	}
	if !resp.authExpired() {
		return c.finish(resp)
	}

	metrics.APIRequests.WithLabelValues(metrics.OutcomeAuthExpired).Inc()
	c.logger.Debug().Str("method", req.Method).Str("path", req.Path).Msg("access token rejected, refreshing")

	credential, err = c.credentialAfterExpiry(ctx, credential)
	if err != nil {
		return nil, err
	}

	metrics.Replays.Inc()
	resp, err = c.send(ctx, req, credential)
	if err != nil {
		return nil, c.sendFailed(ctx, err)
	}
	return c.finish(resp)
}

// DoJSON sends in as a JSON body (nil for none) and decodes a 2xx response
// body into out (nil to discard).
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	req, err := NewJSONRequest(method, path, in)
	if err != nil {
		return err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.DecodeJSON(out)
}

// SendAs sends req once with an explicit credential, bypassing the store and
// the refresh path. Transport failures still raise the timeout event.
func (c *Client) SendAs(ctx context.Context, req *Request, credential string) (*Response, error) {
	resp, err := c.send(ctx, req, credential)
	if err != nil {
		return nil, c.sendFailed(ctx, err)
	}
	return c.finish(resp)
}

// send performs one attempt. Transport failures come back as *TransportError.
func (c *Client) send(ctx context.Context, req *Request, credential string) (*Response, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "[apiclient send] building request")
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if credential != "" {
		(&oauth2.Token{AccessToken: credential, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	metrics.APIRequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: req.Path, Err: err}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

// sendFailed turns a failed attempt into the caller's error. A caller that
// gave up gets its context error and no event; a real transport failure
// raises the timeout event.
func (c *Client) sendFailed(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		metrics.APIRequests.WithLabelValues(metrics.OutcomeCancelled).Inc()
		return fmt.Errorf("[apiclient Do] %w", ctx.Err())
	}
	if !IsTransport(err) {
		return err
	}
	metrics.APIRequests.WithLabelValues(metrics.OutcomeTransport).Inc()
	c.logger.Warn().Err(err).Msg("API unreachable")
	c.bus.Emit(events.KindTimeout, Message(err, ""), events.SeverityError)
	return err
}

func (c *Client) finish(resp *Response) (*Response, error) {
	if resp.OK() {
		metrics.APIRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()
		return resp, nil
	}
	metrics.APIRequests.WithLabelValues(metrics.OutcomeApplication).Inc()
	return resp, newApplicationError(resp)
}

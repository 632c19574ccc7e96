package pms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clbanning/mxj/v2"
	"golang.org/x/time/rate"
)

// TokenSource supplies per-request auth headers. Invalidate is called after
// a 401 so cached credentials (OAuth tokens) can be refreshed before the
// single auth retry.
type TokenSource interface {
	Headers(ctx context.Context) (map[string]string, error)
	Invalidate()
}

// BasicAuth authenticates with a static username/password pair.
type BasicAuth struct {
	Username string
	Password string
}

func (b BasicAuth) Headers(ctx context.Context) (map[string]string, error) {
	req := http.Request{Header: http.Header{}}
	req.SetBasicAuth(b.Username, b.Password)
	return map[string]string{"Authorization": req.Header.Get("Authorization")}, nil
}

func (b BasicAuth) Invalidate() {}

// BearerToken authenticates with a static bearer token, optionally alongside
// extra static headers (OwnerRez sends the account name in its own header).
type BearerToken struct {
	Token string
	Extra map[string]string
}

func (b BearerToken) Headers(ctx context.Context) (map[string]string, error) {
	headers := map[string]string{"Authorization": "Bearer " + b.Token}
	for k, v := range b.Extra {
		headers[k] = v
	}
	return headers, nil
}

func (b BearerToken) Invalidate() {}

// APIKey authenticates with a static key sent in a provider-named header.
type APIKey struct {
	Header string
	Key    string
}

func (a APIKey) Headers(ctx context.Context) (map[string]string, error) {
	return map[string]string{a.Header: a.Key}, nil
}

func (a APIKey) Invalidate() {}

// ClientOptions configures a provider API client. Zero values fall back to
// the defaults documented on each field.
type ClientOptions struct {
	Provider   string
	BaseURL    string
	Token      TokenSource
	Timeout    time.Duration // per-call deadline, default 30s
	MaxRetries int           // retries for transient failures, default 3
	RateLimit  int           // requests per window, default 100
	RateWindow time.Duration // window length, default 60s
	// FailFast returns RateLimitedError immediately instead of waiting for
	// limiter headroom.
	FailFast   bool
	HTTPClient *http.Client
}

// Client is the transport layer shared by every adapter: base-URL
// composition, auth header injection, rate limiting, deadline enforcement,
// and decoding of JSON or XML bodies into one nested-map shape.
type Client struct {
	provider   string
	baseURL    string
	token      TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	rateWindow time.Duration
	timeout    time.Duration
	maxRetries int
	failFast   bool
}

func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 100
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = 60 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		provider:   opts.Provider,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(opts.RateWindow/time.Duration(opts.RateLimit)), opts.RateLimit),
		rateWindow: opts.RateWindow,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		failFast:   opts.FailFast,
	}
}

func (c *Client) Provider() string { return c.provider }

func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, endpoint, query, nil, "application/json")
}

func (c *Client) PostJSON(ctx context.Context, endpoint string, body any) (map[string]any, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, endpoint, nil, data, "application/json")
}

func (c *Client) PutJSON(ctx context.Context, endpoint string, body any) (map[string]any, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPut, endpoint, nil, data, "application/json")
}

func (c *Client) PatchJSON(ctx context.Context, endpoint string, body any) (map[string]any, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPatch, endpoint, nil, data, "application/json")
}

func (c *Client) Delete(ctx context.Context, endpoint string) (map[string]any, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil, "application/json")
}

// PostXML sends an XML document and decodes the XML response into the same
// nested-map shape as JSON, so adapters never branch on transport format.
func (c *Client) PostXML(ctx context.Context, endpoint string, payload string) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, endpoint, nil, []byte(payload), "application/xml")
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body []byte, contentType string) (map[string]any, error) {
	var lastErr error
	backoff := 500 * time.Millisecond

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &UnavailableError{Provider: c.provider, Err: ctx.Err()}
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		result, err := c.doOnce(ctx, method, endpoint, query, body, contentType)
		if err == nil {
			return result, nil
		}
		if !Retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, method, endpoint string, query url.Values, body []byte, contentType string) (map[string]any, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, raw, err := c.send(callCtx, method, endpoint, query, body, contentType)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.token != nil {
		// One refresh-and-retry for expired cached credentials.
		c.token.Invalidate()
		resp, raw, err = c.send(callCtx, method, endpoint, query, body, contentType)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Provider: c.provider, Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 200))}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitedError{Provider: c.provider, RetryAfter: retryAfter(resp)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &RemoteError{Provider: c.provider, Status: resp.StatusCode, Body: string(raw)}
	}

	return c.decode(resp, raw, contentType)
}

// acquire applies the rate-limit policy: immediate failure, or a wait capped
// by the window and the caller's deadline, never an unbounded sleep.
func (c *Client) acquire(ctx context.Context) error {
	if c.failFast {
		if !c.limiter.Allow() {
			return &RateLimitedError{Provider: c.provider, RetryAfter: c.rateWindow}
		}
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, c.rateWindow)
	defer cancel()
	if err := c.limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return &UnavailableError{Provider: c.provider, Err: ctx.Err()}
		}
		return &RateLimitedError{Provider: c.provider, RetryAfter: c.rateWindow}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, query url.Values, body []byte, contentType string) (*http.Response, []byte, error) {
	fullURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentType)

	if c.token != nil {
		headers, err := c.token.Headers(ctx)
		if err != nil {
			return nil, nil, &AuthError{Provider: c.provider, Err: err}
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &UnavailableError{Provider: c.provider, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &UnavailableError{Provider: c.provider, Err: err}
	}
	return resp, raw, nil
}

func (c *Client) decode(resp *http.Response, raw []byte, requestType string) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	responseType := resp.Header.Get("Content-Type")
	if strings.Contains(responseType, "xml") || (responseType == "" && strings.Contains(requestType, "xml")) {
		m, err := mxj.NewMapXml(raw)
		if err != nil {
			return nil, &MalformedResponseError{Provider: c.provider, Body: string(raw), Err: err}
		}
		return map[string]any(m), nil
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &MalformedResponseError{Provider: c.provider, Body: string(raw), Err: err}
	}
	return result, nil
}

func retryAfter(resp *http.Response) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

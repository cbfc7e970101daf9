package httpjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Client issues plain GET requests against the public lookup services.
// There is no retry: a failed request is reported once and the caller decides.
type Client struct {
	httpClient   *http.Client
	streamClient *http.Client
	userAgent    string
	logger       *zap.Logger
}

// ErrStalled is returned by a streamed body that went silent for longer than
// the client timeout.
var ErrStalled = errors.New("download stalled")

// APIError is a non-2xx response.
type APIError struct {
	URL        string
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the transport client. The timeout option still
// applies when given after this one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.streamClient = newStreamClient(c.httpClient)
	return c
}

// newStreamClient drops the whole-request deadline, which would also cover
// reading a large body. The server still has the timeout to start answering.
func newStreamClient(hc *http.Client) *http.Client {
	sc := *hc
	sc.Timeout = 0

	var tr *http.Transport
	switch t := hc.Transport.(type) {
	case nil:
		tr = http.DefaultTransport.(*http.Transport).Clone()
	case *http.Transport:
		tr = t.Clone()
	}
	if tr != nil {
		tr.ResponseHeaderTimeout = hc.Timeout
		sc.Transport = tr
	}
	return &sc
}

// Timeout reports the whole-request deadline of the underlying client.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// GetJSON sends a GET to rawURL with query merged into any query already on
// the URL and decodes the JSON body into dest.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, dest any) error {
	resp, err := c.get(ctx, rawURL, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", resp.Request.URL.Redacted(), err)
	}
	return nil
}

// Stream sends a GET and hands the open body to the caller, who must close it.
// The returned length is -1 when the server did not announce one.
// There is no overall deadline; the body fails with ErrStalled once no byte
// arrives for the client timeout, and ctx cancels it at any time.
func (c *Client) Stream(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	resp, err := c.do(ctx, c.streamClient, rawURL, nil)
	if err != nil {
		cancel(nil)
		return nil, 0, err
	}

	body := &idleBody{ReadCloser: resp.Body, ctx: ctx, cancel: cancel, idle: c.httpClient.Timeout}
	if body.idle > 0 {
		body.timer = time.AfterFunc(body.idle, func() { cancel(ErrStalled) })
	}
	return body, resp.ContentLength, nil
}

// idleBody cancels the request when the gap between reads exceeds idle.
type idleBody struct {
	io.ReadCloser
	ctx    context.Context
	cancel context.CancelCauseFunc
	idle   time.Duration
	timer  *time.Timer
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && errors.Is(context.Cause(b.ctx), ErrStalled) {
		return n, ErrStalled
	}
	if b.timer != nil && n > 0 {
		b.timer.Reset(b.idle)
	}
	return n, err
}

func (b *idleBody) Close() error {
	if b.timer != nil {
		b.timer.Stop()
	}
	err := b.ReadCloser.Close()
	b.cancel(nil)
	return err
}

func (c *Client) get(ctx context.Context, rawURL string, query url.Values) (*http.Response, error) {
	return c.do(ctx, c.httpClient, rawURL, query)
}

func (c *Client) do(ctx context.Context, hc *http.Client, rawURL string, query url.Values) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("url", u.Redacted()), zap.Error(err))
		return nil, err
	}
	c.logger.Debug("request done",
		zap.String("url", u.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &APIError{URL: u.Redacted(), StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

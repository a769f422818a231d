// Package upstream is the resilient outbound HTTP client shared by resolver plugins, verification and webhooks
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/logger"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUA        = "payalias/1 (+https://github.com/payalias)"
	defaultMaxBody   = 1 << 20
	defaultRetryBase = 250 * time.Millisecond
	maxRetryWait     = 5 * time.Second
)

// Options configures the Client
type Options struct {
	UserAgent string
	Timeout   time.Duration

	// MaxRetries is the number of extra attempts on transport errors, 429 and 502/503/504
	MaxRetries int
	RetryBase  time.Duration

	// MaxBody caps how much of a response body is read
	MaxBody int64

	// Transport overrides the round tripper, tests use the httptest TLS client transport
	Transport http.RoundTripper
}

// Client wraps net/http with retries, backoff and bounded reads
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New creates a Client with defaults filled in
func New(name string, o Options) *Client {
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.MaxBody <= 0 {
		o.MaxBody = defaultMaxBody
	}
	hc := &http.Client{Timeout: o.Timeout}
	if o.Transport != nil {
		hc.Transport = o.Transport
	}
	if name == "" {
		name = "upstream"
	}
	return &Client{
		http:  hc,
		opts:  o,
		log:   *logger.Named(name),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Response is a fully read response
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status
func (r Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Do sends method to url with body, retrying transient failures
// any status that is not retried is returned as a Response, callers decide what 404 or 400 means
func (c *Client) Do(ctx context.Context, method, url string, header http.Header, body []byte) (Response, error) {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}

		var rdr io.Reader
		if body != nil {
			rdr = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rdr)
		if err != nil {
			return Response{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "upstream new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		for k, vv := range header {
			for _, v := range vv {
				req.Header.Add(k, v)
			}
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)
		if err != nil {
			if ctx.Err() != nil {
				return Response{}, ctx.Err()
			}
			if attempts >= c.opts.MaxRetries {
				return Response{}, perr.Wrapf(err, perr.ErrorCodeUpstream, "upstream %s %s failed", method, hostOf(url))
			}
			back := c.backoff(attempts)
			c.log.Debug().Err(err).Dur("retry_in", back).Int("attempt", attempts).Str("host", hostOf(url)).Msg("upstream transport error retrying")
			if err := c.sleep(ctx, back); err != nil {
				return Response{}, err
			}
			attempts++
			continue
		}

		data, rerr := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBody))
		_ = resp.Body.Close()

		c.log.Debug().
			Str("method", method).
			Str("host", hostOf(url)).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Msg("upstream http response")

		if retryable(resp.StatusCode) && attempts < c.opts.MaxRetries {
			wait := retryAfter(resp.Header.Get("Retry-After"))
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			if err := c.sleep(ctx, min(wait, maxRetryWait)); err != nil {
				return Response{}, err
			}
			attempts++
			continue
		}
		if rerr != nil {
			return Response{}, perr.Wrapf(rerr, perr.ErrorCodeUpstream, "upstream read body failed")
		}
		return Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
	}
}

// GetJSON fetches url and decodes a 2xx body into out
// 404 maps to ErrorCodeNotFound, other non 2xx statuses to ErrorCodeUpstream
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, out any) error {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	if h.Get("Accept") == "" {
		h.Set("Accept", "application/json")
	}
	resp, err := c.Do(ctx, http.MethodGet, url, h, nil)
	if err != nil {
		return err
	}
	if err := statusErr(resp, url); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "upstream %s returned invalid json", hostOf(url))
	}
	return nil
}

// GetText fetches url and returns a 2xx body as a string
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	resp, err := c.Do(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return "", err
	}
	if err := statusErr(resp, url); err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// PostJSON sends body as application/json and returns the response as is
func (c *Client) PostJSON(ctx context.Context, url string, header http.Header, body []byte) (Response, error) {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Type", "application/json")
	return c.Do(ctx, http.MethodPost, url, h, body)
}

func statusErr(resp Response, url string) error {
	switch {
	case resp.OK():
		return nil
	case resp.Status == http.StatusNotFound:
		return perr.NotFoundf("upstream %s: not found", hostOf(url))
	default:
		return perr.Upstreamf("upstream %s: unexpected status %d", hostOf(url), resp.Status)
	}
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	return min(d, maxRetryWait)
}

// retryAfter reads the delta-seconds form of Retry-After
func retryAfter(v string) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// hostOf keeps query strings and paths with user data out of logs
func hostOf(url string) string {
	s := url
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return s
}

// Package transport implements the authenticated HTTP client shared by every
// API operation: cookies on every call, a CSRF header on mutating calls, and
// a single implicit session-refresh-and-retry when a request comes back 401.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// CSRFHeader is the header mutating requests carry, mirroring the csrf cookie.
const CSRFHeader = "x-csrf-token"

// DefaultCSRFCookie is the cookie the backend stores the CSRF token in.
const DefaultCSRFCookie = "csrf"

// Config configures a Client. BaseURL is required; everything else has
// sensible defaults.
type Config struct {
	BaseURL     string
	Jar         http.CookieJar
	Credentials CredentialProvider
	HTTPClient  *http.Client
	CSRFCookie  string
	Logger      zerolog.Logger
}

// Client performs requests against the API origin. It never synthesizes
// errors for non-2xx statuses; callers inspect the response. It also sets no
// timeout of its own — cancellation is the caller's context.
type Client struct {
	base  *url.URL
	http  *http.Client
	creds CredentialProvider
	log   zerolog.Logger
}

// New builds a Client. When no jar is supplied a fresh in-memory jar is
// created, and when no credential provider is supplied the CSRF token is read
// from that jar's csrf cookie, the way a browser would.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	jar := cfg.Jar
	if jar == nil {
		jar, err = cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	hc.Jar = jar

	creds := cfg.Credentials
	if creds == nil {
		name := cfg.CSRFCookie
		if name == "" {
			name = DefaultCSRFCookie
		}
		creds = CookieToken(jar, base, name)
	}

	return &Client{base: base, http: hc, creds: creds, log: cfg.Logger}, nil
}

// BaseURL returns the configured API origin.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// RequestOptions carries optional per-request headers and query parameters.
type RequestOptions struct {
	Header http.Header
	Query  url.Values
}

// Do issues a request against path. A non-nil body is sent as JSON (or
// verbatim for []byte / json.RawMessage). On a 401 from any path except the
// refresh endpoint it POSTs the refresh endpoint once and, if that succeeds,
// rebuilds headers (picking up the rotated CSRF cookie) and retries the
// original request exactly once. A failed refresh hands back the original 401
// untouched. Concurrent callers refresh independently; the refresh endpoint
// is idempotent from the client's point of view.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts *RequestOptions) (*http.Response, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	res, err := c.send(ctx, method, path, payload, opts)
	if err != nil {
		return nil, err
	}
	if !shouldRefreshRetry(res.StatusCode, path) {
		return res, nil
	}

	c.log.Debug().Str("method", method).Str("path", path).Msg("got 401, refreshing session")

	refreshRes, err := c.send(ctx, http.MethodPost, RefreshPath, nil, nil)
	if err != nil {
		res.Body.Close()
		return nil, err
	}
	refreshed := refreshRes.StatusCode >= 200 && refreshRes.StatusCode < 300
	io.Copy(io.Discard, refreshRes.Body)
	refreshRes.Body.Close()

	if !refreshed {
		c.log.Debug().Str("path", path).Msg("refresh failed, returning original response")
		return res, nil
	}

	res.Body.Close()
	return c.send(ctx, method, path, payload, opts)
}

// send builds and executes one attempt. Headers are assembled per attempt so
// a retried request reads the current CSRF cookie, not the pre-refresh one.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, opts *RequestOptions) (*http.Response, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse request path %q: %w", path, err)
	}
	u := c.base.ResolveReference(ref)
	if opts != nil && len(opts.Query) > 0 {
		q := u.Query()
		for k, vs := range opts.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	if opts != nil {
		for k, vs := range opts.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}
	if isMutating(method) {
		if tok := c.creds.CSRFToken(); tok != "" {
			req.Header.Set(CSRFHeader, tok)
		}
		if payload != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	return c.http.Do(req)
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return payload, nil
	}
}

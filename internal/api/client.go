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
	"time"

	"github.com/google/uuid"

	"github.com/existflow/prayerlist/internal/logger"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "prayerlist/0.1"
	maxBodyBytes     = 4 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration // per request, default 10s
	UserAgent string
	// MaxWaiters caps how many requests may queue behind one token refresh.
	MaxWaiters int
	HTTPClient *http.Client
	Logger     *logger.Logger
}

// Credentials are the saved username/password used for silent re-login.
type Credentials struct {
	Username string
	Password string
	// Epoch identifies the session the credentials were read in. A refresh
	// made with them is dropped if that session has ended since.
	Epoch uint64
}

// Session is the client's view of the authenticated session. The store
// implements it; the client never writes token or user fields itself.
type Session interface {
	// Token returns the current bearer token, "" when logged out.
	Token() string
	// Credentials returns saved credentials when the user opted in.
	Credentials(ctx context.Context) (Credentials, bool)
	// Refreshed installs the result of a silent re-login made with creds. It
	// reports false when the session ended meanwhile and res was dropped.
	Refreshed(creds Credentials, res *LoginResponse) bool
	// ForceLogout ends the session after an unrecoverable 401.
	ForceLogout(reason error)
}

// Client talks to the prayer REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	session   Session
	refresher *Refresher
	log       *logger.Logger
}

// New builds a Client. session may be nil for unauthenticated use.
func New(opts Options, session Session) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = opts.Timeout
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	if session == nil {
		session = anonymous{}
	}

	c := &Client{
		baseURL:   base,
		http:      httpClient,
		userAgent: opts.UserAgent,
		session:   session,
		log:       log,
	}
	c.refresher = newRefresher(session, c.loginForRefresh, opts.MaxWaiters, log)
	return c, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("base URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// request describes one logical API call.
type request struct {
	method    string
	path      string
	query     url.Values
	body      any
	public    bool // no token required, never intercepted
	overrides map[int]override
}

type response struct {
	status int
	body   []byte
}

// do runs r through the refresh interceptor and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, r request, out any) error {
	token := ""
	if !r.public {
		token = c.session.Token()
		if token == "" {
			return unauthorized()
		}
	}

	var payload []byte
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return &Error{Kind: KindUnknown, Message: msgUnknown, Err: fmt.Errorf("encode request: %w", err)}
		}
		payload = data
	}

	resp, err := c.send(ctx, r, payload, token)
	if err != nil {
		return transportError(err)
	}

	if resp.status == http.StatusUnauthorized && !r.public {
		resp, err = c.retryAfterRefresh(ctx, r, payload, token, resp)
		if err != nil {
			return transportError(err)
		}
	}

	return decode(resp, r.overrides, out)
}

// retryAfterRefresh handles a first 401 on an authenticated call. It waits for
// the single in-flight refresh (starting one if needed) and retries once.
func (c *Client) retryAfterRefresh(ctx context.Context, r request, payload []byte, staleToken string, first *response) (*response, error) {
	fresh, err := c.refresher.Await(ctx, staleToken)
	if err != nil {
		c.log.Debug("Refresh did not recover request",
			logger.F("method", r.method),
			logger.F("path", r.path),
			logger.Err(err),
		)
		return first, nil
	}

	resp, err := c.send(ctx, r, payload, fresh)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusUnauthorized {
		c.log.Warn("Request rejected after token refresh, forcing logout",
			logger.F("method", r.method),
			logger.F("path", r.path),
		)
		c.session.ForceLogout(unauthorized())
	}
	return resp, nil
}

// send performs exactly one HTTP round trip. It never interprets the status.
func (c *Client) send(ctx context.Context, r request, payload []byte, token string) (*response, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	c.log.Debug("HTTP Request",
		logger.F("method", r.method),
		logger.F("path", r.path),
		logger.F("request_id", requestID),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("HTTP Request failed",
			logger.F("request_id", requestID),
			logger.Err(err),
		)
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug("HTTP Response",
		logger.F("request_id", requestID),
		logger.F("status", resp.StatusCode),
		logger.F("duration", time.Since(start)),
	)
	return &response{status: resp.StatusCode, body: data}, nil
}

func decode(resp *response, overrides map[int]override, out any) error {
	if resp.status < 200 || resp.status > 299 {
		return statusError(resp.status, resp.body, overrides)
	}
	trimmed := bytes.TrimSpace(resp.body)
	if out == nil {
		if len(trimmed) > 0 && !json.Valid(trimmed) {
			return malformed(fmt.Errorf("decode response: invalid JSON"))
		}
		return nil
	}
	if len(trimmed) == 0 {
		return malformed(fmt.Errorf("decode response: empty body"))
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return malformed(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// anonymous is the Session used when none is supplied.
type anonymous struct{}

func (anonymous) Token() string                                   { return "" }
func (anonymous) Credentials(context.Context) (Credentials, bool) { return Credentials{}, false }
func (anonymous) Refreshed(Credentials, *LoginResponse) bool      { return false }
func (anonymous) ForceLogout(error)                               {}

// Package gateway is the single HTTP client for the usage analytics API. It
// attaches bearer credentials, unwraps response envelopes, normalizes failures
// and reacts to session expiry.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
)

const (
	// DefaultBaseURL is used when no API URL is configured.
	DefaultBaseURL = "http://localhost:3000/api/v1"
	// DefaultTimeout bounds every request.
	DefaultTimeout = 30 * time.Second

	// SessionExpiredMessage is shown whenever the server answers 401.
	SessionExpiredMessage = "Session expired. Please login again."

	maxBodySize = 32 << 20
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the current bearer token, or "" when there is none.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// SessionExpiredHandler is invoked once for every 401 response. The hosting
// shell uses it to clear the session and navigate to the login view.
type SessionExpiredHandler interface {
	SessionExpired()
}

// SessionExpiredFunc adapts a function to SessionExpiredHandler.
type SessionExpiredFunc func()

// SessionExpired implements SessionExpiredHandler.
func (f SessionExpiredFunc) SessionExpired() { f() }

// Notifier surfaces failure messages to the user.
type Notifier interface {
	NotifyError(message string)
}

// Config holds configuration for the client.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport used to send requests.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithTokenSource sets where bearer tokens are read from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithSessionExpiredHandler sets the handler called on 401 responses.
func WithSessionExpiredHandler(h SessionExpiredHandler) Option {
	return func(c *Client) { c.onExpired = h }
}

// WithNotifier sets the sink for user-visible failure messages.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// Client is the request gateway. It is safe for concurrent use.
type Client struct {
	http      Doer
	tokens    TokenSource
	onExpired SessionExpiredHandler
	notifier  Notifier
	baseURL   *url.URL
	userAgent string
	timeout   time.Duration
}

// New creates a gateway client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", cfg.BaseURL)
	}

	c := &Client{
		http:      &http.Client{},
		baseURL:   base,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Get issues a GET and decodes the envelope payload into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body and decodes the payload into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT with a JSON body and decodes the payload into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do sends a request and unwraps the {success, data, message} envelope. Only
// the data payload reaches out. Every failure is returned as *Error after the
// shared failure handling has run.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	status, raw, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return c.fail(ctx, err)
	}

	env, decodeErr := decodeEnvelope(raw)
	if status < 200 || status > 299 {
		return c.fail(ctx, statusError(status, env))
	}
	if decodeErr != nil {
		return c.fail(ctx, &Error{Kind: KindServer, Status: status, Message: "Invalid response from server", Err: decodeErr})
	}
	if !*env.Success {
		msg := env.message()
		if msg == "" {
			msg = "Request failed"
		}
		return c.fail(ctx, &Error{Kind: KindValidation, Status: status, Message: msg, Details: env.details()})
	}
	if err := env.unmarshalData(out); err != nil {
		return c.fail(ctx, &Error{Kind: KindServer, Status: status, Message: "Invalid response from server", Err: err})
	}
	return nil
}

// Raw sends a request whose successful response is not enveloped, such as a
// file download, and returns the body bytes.
func (c *Client) Raw(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	status, raw, err := c.send(ctx, method, path, query, nil)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	if status < 200 || status > 299 {
		env, _ := decodeEnvelope(raw)
		return nil, c.fail(ctx, statusError(status, env))
	}
	return raw, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, networkError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, networkError(err)
	}

	logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode)
	return resp.StatusCode, raw, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Message: "Could not encode request", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "Could not create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	token, explicit := ctx.Value(tokenKey{}).(string)
	if !explicit && c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	return req, nil
}

type tokenKey struct{}

// withToken makes requests on ctx carry token instead of the TokenSource's.
func withToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// fail runs the shared failure handling and returns err for the caller.
// Requests abandoned by the caller's own context are returned quietly.
func (c *Client) fail(ctx context.Context, err error) error {
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		gwErr = &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
	}

	if ctx.Err() != nil && gwErr.Kind == KindNetwork {
		logger.Debug("request abandoned", "error", ctx.Err())
		return gwErr
	}

	if gwErr.Kind == KindAuthExpired {
		logger.Warn("session expired", "status", gwErr.Status)
		if c.onExpired != nil {
			c.onExpired.SessionExpired()
		}
		c.notify(SessionExpiredMessage)
		return gwErr
	}

	logger.Error("api request failed", "kind", gwErr.Kind, "status", gwErr.Status, "error", gwErr.Message)
	c.notify(gwErr.Message)
	return gwErr
}

func (c *Client) notify(msg string) {
	if c.notifier != nil {
		c.notifier.NotifyError(msg)
	}
}

func statusError(status int, env *envelope) *Error {
	e := &Error{Kind: classify(status), Status: status}
	if env != nil {
		e.Message = env.message()
		e.Details = env.details()
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("Request failed with status code %d", status)
	}
	return e
}

func networkError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindNetwork, Message: "Request timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindNetwork, Message: "Request canceled", Err: err}
	}
	return &Error{Kind: KindNetwork, Message: "Network error: could not reach the server", Err: err}
}

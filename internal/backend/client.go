package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"idconsole/internal/config"
	"idconsole/internal/logging"
	"idconsole/internal/services"
)

const (
	// CSRFCookieName is the non HTTP-only cookie carrying the CSRF token.
	CSRFCookieName = "csrftoken"
	// CSRFHeader echoes the CSRF token on state-changing requests.
	CSRFHeader = "X-CSRF-Token"
	// RequestIDHeader correlates console and backend logs.
	RequestIDHeader = "X-Request-ID"

	DefaultTimeout       = 15 * time.Second
	DefaultUploadTimeout = 120 * time.Second
	MinTimeout           = 10 * time.Second
	MaxTimeout           = 30 * time.Second

	componentName = "backend"
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	Jar           http.CookieJar
	APIToken      string
	Timeout       time.Duration
	UploadTimeout time.Duration
	UserAgent     string
	Logger        *slog.Logger
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Client calls the backend over HTTP.
type Client struct {
	base          *url.URL
	http          *http.Client
	jar           http.CookieJar
	token         string
	timeout       time.Duration
	uploadTimeout time.Duration
	userAgent     string
	logger        *slog.Logger
}

// New constructs a client. A nil Jar gets a fresh in-memory jar.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, services.Wrap(services.ErrConfiguration, componentName, "new", "base url is required", nil)
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, componentName, "new", "parse base url", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, services.Wrap(services.ErrConfiguration, componentName, "new", fmt.Sprintf("unsupported scheme %q", base.Scheme), nil)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	base.RawQuery = ""
	base.Fragment = ""

	jar := opts.Jar
	if jar == nil {
		jar, _ = cookiejar.New(nil)
	}

	timeout := opts.Timeout
	switch {
	case timeout <= 0:
		timeout = DefaultTimeout
	case timeout < MinTimeout:
		timeout = MinTimeout
	case timeout > MaxTimeout:
		timeout = MaxTimeout
	}
	uploadTimeout := opts.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadTimeout
	}
	if uploadTimeout < timeout {
		uploadTimeout = timeout
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = "idconsole"
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		base: base,
		// Deadlines come from per-call contexts so uploads can run longer.
		http:          &http.Client{Jar: jar, Transport: transport},
		jar:           jar,
		token:         strings.TrimSpace(opts.APIToken),
		timeout:       timeout,
		uploadTimeout: uploadTimeout,
		userAgent:     userAgent,
		logger:        logging.NewComponentLogger(opts.Logger, componentName),
	}, nil
}

// NewFromConfig builds a client from the backend section of cfg.
func NewFromConfig(cfg *config.Config, jar http.CookieJar, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, componentName, "new", "config is required", nil)
	}
	return New(Options{
		BaseURL:       cfg.Backend.URL,
		Jar:           jar,
		APIToken:      cfg.Backend.APIToken,
		Timeout:       cfg.RequestTimeout(),
		UploadTimeout: cfg.UploadTimeout(),
		UserAgent:     cfg.Backend.UserAgent,
		Logger:        logger,
	})
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Jar returns the cookie jar carrying the backend session.
func (c *Client) Jar() http.CookieJar {
	return c.jar
}

// Timeout returns the interactive call budget.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// endpoint resolves path against the base URL. path is already escaped, so
// callers escape each dynamic segment with url.PathEscape.
func (c *Client) endpoint(path string, query url.Values) *url.URL {
	raw := strings.TrimRight(c.base.EscapedPath(), "/") + path
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	ref := &url.URL{Path: decoded, RawPath: raw}
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}
	return c.base.ResolveReference(ref)
}

// csrfToken returns the CSRF cookie value for the backend origin, if any.
func (c *Client) csrfToken() string {
	if c.jar == nil {
		return ""
	}
	for _, cookie := range c.jar.Cookies(c.base) {
		if cookie.Name == CSRFCookieName {
			return cookie.Value
		}
	}
	return ""
}

func requestID(ctx context.Context) string {
	if id, ok := services.RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.NewString()
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// decorate sets the headers shared by HTTP and WebSocket requests.
func (c *Client) decorate(ctx context.Context, header http.Header, method string) string {
	rid := requestID(ctx)
	header.Set(RequestIDHeader, rid)
	header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	if isWrite(method) {
		if token := c.csrfToken(); token != "" {
			header.Set(CSRFHeader, token)
		}
	}
	return rid
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	timeout     time.Duration
}

// doJSON sends a JSON body (when in is non-nil) and decodes the response into
// out (when non-nil).
func (c *Client) doJSON(ctx context.Context, operation, method, path string, in, out any) error {
	req := request{method: method, path: path, timeout: c.timeout}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return services.Wrap(services.ErrValidation, componentName, operation, "encode request", err)
		}
		req.body = bytes.NewReader(payload)
		req.contentType = "application/json"
	}
	return c.do(ctx, operation, req, out)
}

func (c *Client) do(ctx context.Context, operation string, r request, out any) error {
	if c == nil {
		return services.Wrap(services.ErrConfiguration, componentName, operation, "client not configured", nil)
	}
	timeout := r.timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint(r.path, r.query).String(), r.body)
	if err != nil {
		return services.Wrap(services.ErrValidation, componentName, operation, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	rid := c.decorate(ctx, req.Header, r.method)

	logger := c.logger.With(
		logging.String(logging.FieldOperation, operation),
		logging.String(logging.FieldCorrelationID, rid),
	)
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := transportError(ctx, operation, err)
		logger.Debug("backend call failed", logging.Duration("elapsed", time.Since(started)), logging.Error(wrapped))
		return wrapped
	}
	defer resp.Body.Close()

	logger.Debug("backend call",
		logging.String("method", r.method),
		logging.String("path", r.path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode >= 400 {
		return decodeHTTPError(operation, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return services.Wrap(services.ErrHTTP, componentName, operation, "decode response", err)
	}
	return nil
}

package web

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/labstack/echo/v4"

	"idconsole/internal/backend"
	"idconsole/internal/services"
)

// relayJar forwards the browser's backend cookies and records cookies the
// backend sets so they can be relayed to the browser.
type relayJar struct {
	inner *cookiejar.Jar

	mu  sync.Mutex
	set []*http.Cookie
}

func newRelayJar(base *url.URL, browser []*http.Cookie) *relayJar {
	inner, _ := cookiejar.New(nil)
	forward := make([]*http.Cookie, 0, len(browser))
	for _, c := range browser {
		if c.Name == localeCookie {
			continue
		}
		forward = append(forward, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	if len(forward) > 0 {
		inner.SetCookies(base, forward)
	}
	return &relayJar{inner: inner}
}

func (j *relayJar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

func (j *relayJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)
	j.mu.Lock()
	defer j.mu.Unlock()
	j.set = append(j.set, cookies...)
}

// relay copies backend Set-Cookie values onto the console response. Domain
// is dropped because the browser only talks to the console.
func (j *relayJar) relay(c echo.Context, secure bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, cookie := range j.set {
		out := &http.Cookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Path:     "/",
			Expires:  cookie.Expires,
			MaxAge:   cookie.MaxAge,
			HttpOnly: cookie.HttpOnly,
			Secure:   secure || cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		}
		c.SetCookie(out)
	}
	j.set = nil
}

const (
	ctxClient  = "backend_client"
	ctxJar     = "backend_jar"
	ctxProfile = "profile"
)

// client returns the per-request backend client, building it on first use.
func (s *Server) client(c echo.Context) (*backend.Client, *relayJar, error) {
	if client, ok := c.Get(ctxClient).(*backend.Client); ok {
		jar, _ := c.Get(ctxJar).(*relayJar)
		return client, jar, nil
	}
	jar := newRelayJar(s.backend, c.Cookies())
	client, err := backend.New(backend.Options{
		BaseURL:       s.cfg.Backend.URL,
		Jar:           jar,
		Timeout:       s.cfg.RequestTimeout(),
		UploadTimeout: s.cfg.UploadTimeout(),
		UserAgent:     s.cfg.Backend.UserAgent,
		Logger:        s.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	c.Set(ctxClient, client)
	c.Set(ctxJar, jar)
	return client, jar, nil
}

// requestContext carries the echo request id into backend calls.
func requestContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
		ctx = services.WithRequestID(ctx, rid)
	}
	return ctx
}

package web

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"idconsole/internal/i18n"
)

const (
	localeCookie = "locale"
	ctxLocale    = "locale"
)

// routeNames are first path segments that belong to pages, not locales.
var routeNames = map[string]struct{}{
	"jobs": {}, "login": {}, "logout": {}, "register": {}, "upload": {}, "admin": {},
}

// preferredLocale picks the locale for a request with no usable prefix.
func (s *Server) preferredLocale(c echo.Context) string {
	if cookie, err := c.Cookie(localeCookie); err == nil && i18n.IsSupported(cookie.Value) {
		return cookie.Value
	}
	if accept := strings.TrimSpace(c.Request().Header.Get("Accept-Language")); accept != "" {
		return i18n.Negotiate(accept)
	}
	if i18n.IsSupported(s.cfg.Console.Locale) {
		return s.cfg.Console.Locale
	}
	return i18n.DefaultLocale
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/"+s.preferredLocale(c)+"/jobs")
}

func (s *Server) handleLocaleRoot(c echo.Context) error {
	return c.Redirect(http.StatusFound, localePath(c, "/jobs"))
}

// withLocale validates the prefix, redirecting unsupported ones, and
// remembers the choice in the locale cookie.
func (s *Server) withLocale(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Param("locale")
		if !i18n.IsSupported(raw) {
			return c.Redirect(http.StatusFound, s.redirectTarget(c, raw))
		}
		if cookie, err := c.Cookie(localeCookie); err != nil || cookie.Value != raw {
			c.SetCookie(&http.Cookie{
				Name:     localeCookie,
				Value:    raw,
				Path:     "/",
				MaxAge:   365 * 24 * 60 * 60,
				SameSite: http.SameSiteLaxMode,
				Secure:   s.cfg.Web.SecureCookies,
			})
		}
		c.Set(ctxLocale, raw)
		return next(c)
	}
}

func (s *Server) redirectTarget(c echo.Context, raw string) string {
	path := c.Request().URL.Path
	rest := path
	if _, page := routeNames[strings.ToLower(raw)]; !page {
		rest = strings.TrimPrefix(path, "/"+raw)
	}
	if rest == "" || rest == "/" {
		rest = "/jobs"
	}
	target := "/" + s.preferredLocale(c) + rest
	if q := c.Request().URL.RawQuery; q != "" {
		target += "?" + q
	}
	return target
}

func currentLocale(c echo.Context) string {
	if locale, ok := c.Get(ctxLocale).(string); ok && locale != "" {
		return locale
	}
	return i18n.DefaultLocale
}

func (s *Server) translator(c echo.Context) i18n.Translator {
	return s.catalog.For(currentLocale(c))
}

// localePath prefixes path with the request's locale.
func localePath(c echo.Context, path string) string {
	return "/" + currentLocale(c) + path
}

// unprefixed returns the request path without its locale segment.
func unprefixed(c echo.Context) string {
	path := strings.TrimPrefix(c.Request().URL.Path, "/"+currentLocale(c))
	if path == "" {
		return "/jobs"
	}
	return path
}

type localeLink struct {
	Code    string
	Href    string
	Current bool
}

func localeLinks(c echo.Context) []localeLink {
	rest := unprefixed(c)
	current := currentLocale(c)
	links := make([]localeLink, 0, len(i18n.SupportedLocales()))
	for _, code := range i18n.SupportedLocales() {
		links = append(links, localeLink{Code: code, Href: "/" + code + rest, Current: code == current})
	}
	return links
}

package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"idconsole/internal/api"
	"idconsole/internal/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

// templates renders one page template inside the shared layout.
type templates struct {
	pages map[string]*template.Template
}

func newTemplates() (*templates, error) {
	entries, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: list templates: %w", err)
	}
	pages := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		if entry == layoutTemplate {
			continue
		}
		name := strings.TrimSuffix(path.Base(entry), ".html")
		tmpl, err := template.New(name).ParseFS(templateFS, layoutTemplate, entry)
		if err != nil {
			return nil, fmt.Errorf("web: parse %s: %w", entry, err)
		}
		pages[name] = tmpl
	}
	return &templates{pages: pages}, nil
}

// Render implements echo.Renderer.
func (t *templates) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("web: unknown template %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// pageData is the value every template receives.
type pageData struct {
	T       i18n.Translator
	Locale  string
	Locales []localeLink
	Profile *api.Profile
	Title   string
	Flash   string
	Error   string
	Refresh int
	Content any
}

// Prefix builds a locale-prefixed link.
func (p pageData) Prefix(rest string) string {
	return "/" + p.Locale + rest
}

// IsAdmin hides admin navigation from everyone else.
func (p pageData) IsAdmin() bool {
	return p.Profile != nil && p.Profile.IsAdmin()
}

// SignedInAs is the navigation greeting.
func (p pageData) SignedInAs() string {
	if p.Profile == nil {
		return ""
	}
	return p.T.T(i18n.MessageSignedInAs, p.Profile.Name())
}

type page struct {
	status  int
	name    string
	title   i18n.Key
	flash   string
	err     string
	refresh int
	content any
}

func (s *Server) render(c echo.Context, p page) error {
	status := p.status
	if status == 0 {
		status = http.StatusOK
	}
	profile, _ := c.Get(ctxProfile).(*api.Profile)
	tr := s.translator(c)
	data := pageData{
		T:       tr,
		Locale:  currentLocale(c),
		Locales: localeLinks(c),
		Profile: profile,
		Title:   tr.T(p.title),
		Flash:   p.flash,
		Error:   p.err,
		Refresh: p.refresh,
		Content: p.content,
	}
	return c.Render(status, p.name, data)
}

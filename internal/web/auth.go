package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"idconsole/internal/api"
	"idconsole/internal/forms"
	"idconsole/internal/i18n"
	"idconsole/internal/logging"
	"idconsole/internal/services"
)

type loginView struct {
	Username string
	Errors   map[string]string
}

type registerView struct {
	Username    string
	Email       string
	DisplayName string
	Errors      map[string]string
}

func profileOf(c echo.Context) *api.Profile {
	profile, _ := c.Get(ctxProfile).(*api.Profile)
	return profile
}

func (s *Server) handleLoginForm(c echo.Context) error {
	p := page{name: "login", title: i18n.TitleLogin, content: loginView{}}
	if c.QueryParam("signed_out") != "" {
		p.flash = s.translator(c).T(i18n.MessageSignedOut)
	}
	return s.render(c, p)
}

func (s *Server) handleLogin(c echo.Context) error {
	tr := s.translator(c)
	req := api.LoginRequest{
		Username: strings.TrimSpace(c.FormValue("username")),
		Password: c.FormValue("password"),
	}
	view := loginView{Username: req.Username}
	if err := s.validator.Login(req); err != nil {
		if ferrs, ok := forms.AsErrors(err); ok {
			view.Errors = ferrs.Localize(tr)
		}
		return s.render(c, page{status: http.StatusUnprocessableEntity, name: "login", title: i18n.TitleLogin, content: view})
	}

	client, jar, err := s.client(c)
	if err != nil {
		return err
	}
	if err := client.Login(requestContext(c), req); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrUnauthorized) || errors.Is(err, services.ErrValidation) {
			status = http.StatusUnauthorized
		}
		return s.render(c, page{status: status, name: "login", title: i18n.TitleLogin, err: s.failure(c, err), content: view})
	}
	jar.relay(c, s.cfg.Web.SecureCookies)
	s.logger.Info("console sign in", logging.String("username", req.Username))
	return c.Redirect(http.StatusSeeOther, localePath(c, "/jobs"))
}

func (s *Server) handleRegisterForm(c echo.Context) error {
	return s.render(c, page{name: "register", title: i18n.TitleRegister, content: registerView{}})
}

func (s *Server) handleRegister(c echo.Context) error {
	tr := s.translator(c)
	req := api.RegisterRequest{
		Username:    strings.TrimSpace(c.FormValue("username")),
		Password:    c.FormValue("password"),
		Email:       strings.TrimSpace(c.FormValue("email")),
		DisplayName: strings.TrimSpace(c.FormValue("display_name")),
	}
	view := registerView{Username: req.Username, Email: req.Email, DisplayName: req.DisplayName}
	if err := s.validator.Register(req); err != nil {
		if ferrs, ok := forms.AsErrors(err); ok {
			view.Errors = ferrs.Localize(tr)
		}
		return s.render(c, page{status: http.StatusUnprocessableEntity, name: "register", title: i18n.TitleRegister, content: view})
	}

	client, jar, err := s.client(c)
	if err != nil {
		return err
	}
	if _, err := client.Register(requestContext(c), req); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrHTTP) {
			status = http.StatusUnprocessableEntity
		}
		return s.render(c, page{status: status, name: "register", title: i18n.TitleRegister, err: s.failure(c, err), content: view})
	}
	jar.relay(c, s.cfg.Web.SecureCookies)
	return s.render(c, page{
		name:    "login",
		title:   i18n.TitleLogin,
		flash:   tr.T(i18n.MessageRegistered, req.Username),
		content: loginView{Username: req.Username},
	})
}

// handleLogout always clears the browser's backend cookies, even when the
// backend already considers the session gone.
func (s *Server) handleLogout(c echo.Context) error {
	client, jar, err := s.client(c)
	if err != nil {
		return err
	}
	if err := client.Logout(requestContext(c)); err != nil && !errors.Is(err, services.ErrUnauthorized) {
		s.logger.Warn("console sign out failed", logging.Error(err))
	}
	for _, cookie := range c.Cookies() {
		if cookie.Name == localeCookie {
			continue
		}
		c.SetCookie(&http.Cookie{Name: cookie.Name, Value: "", Path: "/", MaxAge: -1})
	}
	jar.relay(c, s.cfg.Web.SecureCookies)
	return c.Redirect(http.StatusSeeOther, localePath(c, "/login?signed_out=1"))
}

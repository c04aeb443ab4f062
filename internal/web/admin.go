package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"idconsole/internal/api"
	"idconsole/internal/console"
	"idconsole/internal/forms"
	"idconsole/internal/i18n"
	"idconsole/internal/logging"
	"idconsole/internal/services"
)

const secondsPerDay = 24 * 60 * 60

type tokenForm struct {
	Name    string
	Owner   string
	TTLDays string
}

type tokensView struct {
	Rows    []console.TokenRow
	Form    tokenForm
	Created string
	Errors  map[string]string
}

type userForm struct {
	Username    string
	DisplayName string
	Email       string
	Roles       string
	Features    string
}

type usersView struct {
	Rows   []console.UserRow
	Form   userForm
	Errors map[string]string
}

func (s *Server) handleTokens(c echo.Context) error {
	return s.renderTokens(c, http.StatusOK, tokensView{}, "", "")
}

// renderTokens refetches the token list and renders it with the given form
// state. A failed fetch becomes the page error.
func (s *Server) renderTokens(c echo.Context, status int, view tokensView, flash, errText string) error {
	client, _, err := s.client(c)
	if err != nil {
		return err
	}
	tokens, err := client.ListTokens(requestContext(c))
	if err != nil {
		if services.IsCanceled(err) {
			return err
		}
		errText = s.failure(c, err)
	}
	view.Rows = console.TokenRows(tokens, s.translator(c))
	return s.render(c, page{status: status, name: "tokens", title: i18n.TitleTokens, flash: flash, err: errText, content: view})
}

func (s *Server) handleCreateToken(c echo.Context) error {
	tr := s.translator(c)
	form := tokenForm{
		Name:    strings.TrimSpace(c.FormValue("name")),
		Owner:   strings.TrimSpace(c.FormValue("owner")),
		TTLDays: strings.TrimSpace(c.FormValue("ttl_days")),
	}
	view := tokensView{Form: form}
	req := api.TokenCreateRequest{Name: form.Name, Owner: form.Owner}
	if form.TTLDays != "" {
		days, err := strconv.ParseInt(form.TTLDays, 10, 64)
		if err != nil || days < 0 {
			view.Errors = forms.Errors{{Field: "ttl_days", Code: forms.CodeInvalid}}.Localize(tr)
			return s.renderTokens(c, http.StatusUnprocessableEntity, view, "", "")
		}
		req.TTLSeconds = days * secondsPerDay
	}
	if err := s.validator.Token(req); err != nil {
		if ferrs, ok := forms.AsErrors(err); ok {
			view.Errors = ferrs.Localize(tr)
		}
		return s.renderTokens(c, http.StatusUnprocessableEntity, view, "", "")
	}

	client, _, err := s.client(c)
	if err != nil {
		return err
	}
	token, err := client.CreateToken(requestContext(c), req)
	if err != nil {
		return s.renderTokens(c, adminFailureStatus(err), view, "", s.failure(c, err))
	}
	s.logger.Info("api token created", logging.String("token_id", token.ID), logging.String("name", token.Name))
	created := tokensView{Created: tr.T(i18n.MessageTokenShownOnce, token.Token)}
	return s.renderTokens(c, http.StatusOK, created, tr.T(i18n.MessageTokenCreated, token.Name), "")
}

func (s *Server) handleRevokeToken(c echo.Context) error {
	tr := s.translator(c)
	client, _, err := s.client(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if err := client.RevokeToken(requestContext(c), id); err != nil {
		return s.renderTokens(c, adminFailureStatus(err), tokensView{}, "", s.failure(c, err))
	}
	s.logger.Info("api token revoked", logging.String("token_id", id))
	return s.renderTokens(c, http.StatusOK, tokensView{}, tr.T(i18n.MessageTokenRevoked, id), "")
}

func (s *Server) handleUsers(c echo.Context) error {
	return s.renderUsers(c, http.StatusOK, usersView{}, "", "")
}

func (s *Server) renderUsers(c echo.Context, status int, view usersView, flash, errText string) error {
	client, _, err := s.client(c)
	if err != nil {
		return err
	}
	users, err := client.ListUsers(requestContext(c))
	if err != nil {
		if services.IsCanceled(err) {
			return err
		}
		errText = s.failure(c, err)
	}
	view.Rows = console.UserRows(users, s.translator(c))
	return s.render(c, page{status: status, name: "users", title: i18n.TitleUsers, flash: flash, err: errText, content: view})
}

func (s *Server) handleCreateUser(c echo.Context) error {
	tr := s.translator(c)
	form := userForm{
		Username:    strings.TrimSpace(c.FormValue("username")),
		DisplayName: strings.TrimSpace(c.FormValue("display_name")),
		Email:       strings.TrimSpace(c.FormValue("email")),
		Roles:       c.FormValue("roles"),
		Features:    c.FormValue("features"),
	}
	req := api.UserCreateRequest{
		Username:    form.Username,
		Password:    c.FormValue("password"),
		DisplayName: form.DisplayName,
		Email:       form.Email,
		Roles:       splitList(form.Roles),
		Features:    splitList(form.Features),
	}
	view := usersView{Form: form}
	if err := s.validator.UserCreate(req); err != nil {
		if ferrs, ok := forms.AsErrors(err); ok {
			view.Errors = ferrs.Localize(tr)
		}
		return s.renderUsers(c, http.StatusUnprocessableEntity, view, "", "")
	}

	client, _, err := s.client(c)
	if err != nil {
		return err
	}
	user, err := client.CreateUser(requestContext(c), req)
	if err != nil {
		return s.renderUsers(c, adminFailureStatus(err), view, "", s.failure(c, err))
	}
	s.logger.Info("user created", logging.String("user_id", user.ID), logging.String("username", user.Username))
	return s.renderUsers(c, http.StatusOK, usersView{}, tr.T(i18n.MessageUserCreated, user.Username), "")
}

// handleUpdateUser sends only the fields present in the row form. An empty
// password leaves the password unchanged.
func (s *Server) handleUpdateUser(c echo.Context) error {
	tr := s.translator(c)
	id := c.Param("id")
	disabled := c.FormValue("disabled") != ""
	req := api.UserUpdateRequest{
		Roles:    splitList(c.FormValue("roles")),
		Features: splitList(c.FormValue("features")),
		Disabled: &disabled,
	}
	if values, err := c.FormParams(); err == nil {
		if _, ok := values["display_name"]; ok {
			req.DisplayName = api.StringPtr(strings.TrimSpace(values.Get("display_name")))
		}
	}
	if password := c.FormValue("password"); password != "" {
		req.Password = api.StringPtr(password)
	}
	if err := s.validator.UserUpdate(req); err != nil {
		view := usersView{}
		if ferrs, ok := forms.AsErrors(err); ok {
			view.Errors = ferrs.Localize(tr)
		}
		return s.renderUsers(c, http.StatusUnprocessableEntity, view, "", "")
	}

	client, _, err := s.client(c)
	if err != nil {
		return err
	}
	user, err := client.UpdateUser(requestContext(c), id, req)
	if err != nil {
		return s.renderUsers(c, adminFailureStatus(err), usersView{}, "", s.failure(c, err))
	}
	s.logger.Info("user updated", logging.String("user_id", id))
	return s.renderUsers(c, http.StatusOK, usersView{}, tr.T(i18n.MessageUserUpdated, user.Username), "")
}

func (s *Server) handleDeleteUser(c echo.Context) error {
	tr := s.translator(c)
	id := c.Param("id")
	client, _, err := s.client(c)
	if err != nil {
		return err
	}
	if err := client.DeleteUser(requestContext(c), id); err != nil {
		return s.renderUsers(c, adminFailureStatus(err), usersView{}, "", s.failure(c, err))
	}
	s.logger.Info("user deleted", logging.String("user_id", id))
	return s.renderUsers(c, http.StatusOK, usersView{}, tr.T(i18n.MessageUserDeleted, id), "")
}

func adminFailureStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

// splitList parses a comma separated form value.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

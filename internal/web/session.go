package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"idconsole/internal/backend"
	"idconsole/internal/i18n"
	"idconsole/internal/logging"
	"idconsole/internal/services"
)

// requireSession resolves the signed-in profile through the backend. Signed
// out browsers are sent to the login page; other failures render an error
// page instead of guessing.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		client, jar, err := s.client(c)
		if err != nil {
			return err
		}
		profile, err := client.Whoami(requestContext(c))
		jar.relay(c, s.cfg.Web.SecureCookies)
		switch {
		case err == nil:
			profile.Normalize()
			c.Set(ctxProfile, profile)
			return next(c)
		case errors.Is(err, services.ErrUnauthorized):
			return c.Redirect(http.StatusSeeOther, localePath(c, "/login"))
		case services.IsCanceled(err):
			return err
		default:
			s.logger.Warn("whoami failed",
				logging.String(logging.FieldOperation, "whoami"),
				logging.Error(err),
			)
			return s.render(c, page{
				status: http.StatusBadGateway,
				name:   "error",
				title:  i18n.TitleJobs,
				err:    s.failure(c, err),
			})
		}
	}
}

// requireAdmin shows the admin-only notice to everyone else.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if profile := profileOf(c); profile == nil || !profile.IsAdmin() {
			return s.render(c, page{
				status: http.StatusForbidden,
				name:   "error",
				title:  i18n.TitleUsers,
				err:    s.translator(c).T(i18n.MessageAdminOnly),
			})
		}
		return next(c)
	}
}

// failure renders a backend error for a banner.
func (s *Server) failure(c echo.Context, err error) string {
	return s.translator(c).T(i18n.MessageRequestFailed, backend.Message(err))
}

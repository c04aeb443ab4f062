package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"idconsole/internal/config"
	"idconsole/internal/forms"
	"idconsole/internal/i18n"
	"idconsole/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Config  *config.Config
	Logger  *slog.Logger
	Catalog *i18n.Catalog
}

// Server is the web console.
type Server struct {
	cfg       *config.Config
	echo      *echo.Echo
	catalog   *i18n.Catalog
	validator *forms.Validator
	logger    *slog.Logger
	backend   *url.URL
}

// New builds the Echo application and registers routes.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("web: config is required")
	}
	base, err := url.Parse(opts.Config.Backend.URL)
	if err != nil {
		return nil, fmt.Errorf("web: parse backend url: %w", err)
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = i18n.New()
	}
	renderer, err := newTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       opts.Config,
		echo:      echo.New(),
		catalog:   catalog,
		validator: forms.New(),
		logger:    logging.NewComponentLogger(opts.Logger, "web"),
		backend:   base,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			attrs := []slog.Attr{
				logging.String("method", v.Method),
				logging.String("uri", v.URI),
				logging.Int("status", v.Status),
				logging.Duration("latency", v.Latency),
				logging.String(logging.FieldCorrelationID, v.RequestID),
			}
			if v.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, logging.Error(v.Error))
			}
			s.logger.LogAttrs(c.Request().Context(), level, "http request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	s.routes()
	return s, nil
}

// Handler exposes the application for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on the configured bind address until ctx ends, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Web.Bind)
	if err != nil {
		return fmt.Errorf("web: listen on %s: %w", s.cfg.Web.Bind, err)
	}
	return s.Serve(ctx, listener)
}

// Serve runs on an existing listener until ctx ends.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.echo.Listener = listener
	s.logger.Info("web console listening",
		logging.String("addr", listener.Addr().String()),
		logging.String("backend", s.backend.String()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start("")
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() {
	e := s.echo
	e.GET("/healthz", s.handleHealth)
	e.GET("/", s.handleRoot)

	g := e.Group("/:locale", s.withLocale)
	g.GET("", s.handleLocaleRoot)
	g.GET("/login", s.handleLoginForm)
	g.POST("/login", s.handleLogin)
	g.GET("/register", s.handleRegisterForm)
	g.POST("/register", s.handleRegister)
	g.POST("/logout", s.handleLogout)

	authed := g.Group("", s.requireSession)
	authed.GET("/jobs", s.handleJobs)
	authed.GET("/jobs/:id", s.handleJob)
	authed.GET("/upload", s.handleUploadForm)
	authed.POST("/upload", s.handleUpload)

	admin := authed.Group("/admin", s.requireAdmin)
	admin.GET("/tokens", s.handleTokens)
	admin.POST("/tokens", s.handleCreateToken)
	admin.POST("/tokens/:id/revoke", s.handleRevokeToken)
	admin.GET("/users", s.handleUsers)
	admin.POST("/users", s.handleCreateUser)
	admin.POST("/users/:id", s.handleUpdateUser)
	admin.POST("/users/:id/delete", s.handleDeleteUser)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": s.backend.String(),
	})
}

func (s *Server) pollSeconds() int {
	seconds := int(s.cfg.PollInterval() / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

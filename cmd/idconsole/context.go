package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"idconsole/internal/backend"
	"idconsole/internal/config"
	"idconsole/internal/forms"
	"idconsole/internal/i18n"
	"idconsole/internal/logging"
	"idconsole/internal/services"
	"idconsole/internal/session"
)

const cliLogFile = "idconsole.log"

var errNotSignedIn = errors.New("not signed in; run `idconsole login` or set backend.api_token")

type commandContext struct {
	configFlag  *string
	backendFlag *string
	localeFlag  *string
	jsonFlag    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	catalog *i18n.Catalog
}

func newCommandContext(configFlag, backendFlag, localeFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		backendFlag: backendFlag,
		localeFlag:  localeFlag,
		jsonFlag:    jsonFlag,
		catalog:     i18n.New(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.backendFlag != nil && strings.TrimSpace(*c.backendFlag) != "" {
			cfg.Backend.URL = strings.TrimRight(strings.TrimSpace(*c.backendFlag), "/")
		}
		if c.localeFlag != nil && strings.TrimSpace(*c.localeFlag) != "" {
			cfg.Console.Locale = i18n.Normalize(*c.localeFlag)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) jsonMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) translator() i18n.Translator {
	locale := i18n.DefaultLocale
	if cfg := c.configValue(); cfg != nil {
		locale = cfg.Console.Locale
	}
	return c.catalog.For(locale)
}

// log writes CLI diagnostics to the log directory only, keeping stdout for
// command output.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		if cfg == nil || strings.TrimSpace(cfg.Logging.Dir) == "" {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      "json",
			OutputPaths: []string{filepath.Join(cfg.Logging.Dir, cliLogFile)},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to open log file: %v\n", err)
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// sessionEnv bundles what authenticated commands need.
type sessionEnv struct {
	cfg     *config.Config
	jar     *session.Jar
	client  *backend.Client
	manager *session.Manager
	logger  *slog.Logger
}

func (c *commandContext) openSession() (*sessionEnv, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.log()
	base, err := backendBase(cfg)
	if err != nil {
		return nil, err
	}
	jar, err := session.OpenJar(cfg.Session.File, base)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	client, err := backend.NewFromConfig(cfg, jar, logger)
	if err != nil {
		return nil, err
	}
	return &sessionEnv{
		cfg:     cfg,
		jar:     jar,
		client:  client,
		manager: session.NewManager(client, session.NewStore(), logger),
		logger:  logger,
	}, nil
}

// withSession runs fn and persists any cookies the backend set meanwhile.
func (c *commandContext) withSession(fn func(*sessionEnv) error) error {
	env, err := c.openSession()
	if err != nil {
		return err
	}
	runErr := fn(env)
	if err := env.jar.Save(); err != nil {
		env.logger.Warn("save session failed", logging.Error(err))
		if runErr == nil {
			runErr = fmt.Errorf("save session: %w", err)
		}
	}
	return runErr
}

// requireSignIn loads the profile and fails with a hint when signed out.
func (env *sessionEnv) requireSignIn(ctx context.Context) error {
	if err := env.manager.Init(ctx); err != nil {
		return err
	}
	if !env.manager.Store().Active() {
		return errNotSignedIn
	}
	return nil
}

// signalContext ends on Ctrl+C or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, unix.SIGTERM)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func backendBase(cfg *config.Config) (*url.URL, error) {
	base, err := url.Parse(cfg.Backend.URL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	return base, nil
}

// describeError keeps backend details and localizes form failures.
func (c *commandContext) describeError(err error) error {
	if err == nil {
		return nil
	}
	if ferrs, ok := forms.AsErrors(err); ok {
		tr := c.translator()
		messages := make([]string, 0, len(ferrs))
		for _, fe := range ferrs {
			messages = append(messages, fe.Message(tr))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	switch {
	case errors.Is(err, errNotSignedIn), services.IsCanceled(err):
		return err
	case errors.Is(err, services.ErrUnauthorized):
		return fmt.Errorf("%s: %w", backend.Message(err), errNotSignedIn)
	case backend.StatusCode(err) != 0:
		return errors.New(backend.Message(err))
	default:
		return err
	}
}

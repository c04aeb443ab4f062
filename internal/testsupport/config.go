package testsupport

import (
	"path/filepath"
	"testing"

	"idconsole/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Session.File = filepath.Join(base, "session.json")
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Web.Bind = "127.0.0.1:0"
	cfgVal.Backend.RequestTimeout = 10
	cfgVal.Backend.UploadTimeout = 30

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithBackend points the test config at a backend URL, typically a fake
// backend's httptest server.
func WithBackend(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.URL = url
	}
}

// WithPollInterval overrides the live poll cadence in seconds.
func WithPollInterval(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Live.PollInterval = seconds
	}
}

// WithLocale sets the console locale.
func WithLocale(locale string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Console.Locale = locale
	}
}

// WithNtfyTopic points finished-job notifications at url.
func WithNtfyTopic(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = url
	}
}

// WithPush toggles per-job push channels.
func WithPush(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Live.PushEnabled = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Session.File)
}

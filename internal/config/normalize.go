package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"idconsole/internal/i18n"
)

const (
	envBackendURL = "IDCONSOLE_BACKEND_URL"
	envAPIToken   = "IDCONSOLE_API_TOKEN"
	envLocale     = "IDCONSOLE_LOCALE"
	envNtfyTopic  = "IDCONSOLE_NTFY_TOPIC"
)

// loadDotEnv reads ./.env when present. Variables already set in the process
// environment win over the file.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	_ = godotenv.Load(".env")
}

func (c *Config) normalize() error {
	c.applyEnv()
	if err := c.normalizeBackend(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLive()
	c.normalizeConsole()
	c.normalizeWeb()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnv() {
	if value, ok := lookupEnv(envBackendURL); ok {
		c.Backend.URL = value
	}
	if value, ok := lookupEnv(envAPIToken); ok {
		c.Backend.APIToken = value
	}
	if value, ok := lookupEnv(envLocale); ok {
		c.Console.Locale = value
	}
	if value, ok := lookupEnv(envNtfyTopic); ok {
		c.Notifications.NtfyTopic = value
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (c *Config) normalizeBackend() error {
	c.Backend.URL = strings.TrimRight(strings.TrimSpace(c.Backend.URL), "/")
	if c.Backend.URL == "" {
		c.Backend.URL = defaultBackendURL
	}
	if !strings.Contains(c.Backend.URL, "://") {
		c.Backend.URL = "http://" + c.Backend.URL
	}
	c.Backend.APIToken = strings.TrimSpace(c.Backend.APIToken)
	c.Backend.UserAgent = strings.TrimSpace(c.Backend.UserAgent)
	if c.Backend.UserAgent == "" {
		c.Backend.UserAgent = defaultUserAgent
	}
	if c.Backend.RequestTimeout == 0 {
		c.Backend.RequestTimeout = defaultRequestTimeout
	}
	if c.Backend.UploadTimeout == 0 {
		c.Backend.UploadTimeout = defaultUploadTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Session.File) == "" {
		c.Session.File = defaultSessionFile
	}
	if c.Session.File, err = expandPath(c.Session.File); err != nil {
		return fmt.Errorf("session.file: %w", err)
	}
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLive() {
	if c.Live.PollInterval == 0 {
		c.Live.PollInterval = defaultPollInterval
	}
}

func (c *Config) normalizeConsole() {
	locale := strings.ToLower(strings.TrimSpace(c.Console.Locale))
	if locale == "" {
		locale = defaultLocale
	}
	c.Console.Locale = i18n.Normalize(locale)
}

func (c *Config) normalizeWeb() {
	c.Web.Bind = strings.TrimSpace(c.Web.Bind)
	if c.Web.Bind == "" {
		c.Web.Bind = defaultWebBind
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

package config

import (
	"errors"
	"fmt"
	"net/url"

	"idconsole/internal/i18n"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateLive(); err != nil {
		return err
	}
	if err := c.validateConsole(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic != "" {
		parsed, err := url.Parse(c.Notifications.NtfyTopic)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", c.Notifications.NtfyTopic)
		}
	}
	return ensureRange("notifications.request_timeout", c.Notifications.RequestTimeout, minRequestTimeout, maxRequestTimeout)
}

func (c *Config) validateBackend() error {
	parsed, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("backend.url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend.url must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("backend.url must include a host")
	}
	if err := ensureRange("backend.request_timeout", c.Backend.RequestTimeout, minRequestTimeout, maxRequestTimeout); err != nil {
		return err
	}
	if c.Backend.UploadTimeout < c.Backend.RequestTimeout {
		return errors.New("backend.upload_timeout must be at least backend.request_timeout")
	}
	return nil
}

func (c *Config) validateLive() error {
	if c.Live.PollInterval <= 0 {
		return errors.New("live.poll_interval must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateConsole() error {
	if !i18n.IsSupported(c.Console.Locale) {
		return fmt.Errorf("console.locale %q is not supported (choose one of %v)", c.Console.Locale, i18n.SupportedLocales())
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensureRange(name string, value, low, high int) error {
	if value < low || value > high {
		return fmt.Errorf("%s must be between %d and %d (seconds)", name, low, high)
	}
	return nil
}

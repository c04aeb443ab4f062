package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"idconsole/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Backend contains the identify/job backend location and call budgets.
type Backend struct {
	URL            string `toml:"url"`
	APIToken       string `toml:"api_token"`
	RequestTimeout int    `toml:"request_timeout"`
	UploadTimeout  int    `toml:"upload_timeout"`
	UserAgent      string `toml:"user_agent"`
}

// Live contains configuration for the job live-update pipeline.
type Live struct {
	// PollInterval is the fallback refetch cadence per live job, in seconds.
	PollInterval int `toml:"poll_interval"`
	// PushEnabled opens a WebSocket channel per live job in addition to polling.
	PushEnabled bool `toml:"push_enabled"`
	// StaleGuard drops updates whose updated_at is older than the stored record.
	StaleGuard bool `toml:"stale_guard"`
}

// Session contains CLI credential storage settings.
type Session struct {
	File string `toml:"file"`
}

// Console contains presentation settings shared by the CLI and web console.
type Console struct {
	Locale string `toml:"locale"`
}

// Web contains configuration for the server-rendered console.
type Web struct {
	Bind          string `toml:"bind"`
	SecureCookies bool   `toml:"secure_cookies"`
}

// Notifications contains ntfy settings for job completion alerts.
type Notifications struct {
	// NtfyTopic is the full ntfy topic URL. Empty disables notifications.
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for idconsole.
//
// Configuration sections by subsystem:
//   - Backend: identify/job backend URL, bearer token, and timeouts
//   - Live: poll cadence and push channel toggles for job tracking
//   - Session: where the CLI keeps its session cookies
//   - Console: display locale
//   - Web: bind address and cookie flags for idconsoled
//   - Notifications: ntfy topic for finished-job alerts
//   - Logging: log format, level, and directory
type Config struct {
	Backend       Backend       `toml:"backend"`
	Live          Live          `toml:"live"`
	Session       Session       `toml:"session"`
	Console       Console       `toml:"console"`
	Web           Web           `toml:"web"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	loadDotEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("idconsole.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the console writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Session.File)}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		dirs = append(dirs, c.Logging.Dir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequestTimeout returns the budget for interactive backend calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Backend.RequestTimeout) * time.Second
}

// UploadTimeout returns the budget for file uploads.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.Backend.UploadTimeout) * time.Second
}

// NotifyTimeout returns the budget for one ntfy request.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// PollInterval returns the fallback refetch cadence for live jobs.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Live.PollInterval) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML, with the API token masked.
func (c *Config) Encode() ([]byte, error) {
	masked := *c
	if masked.Backend.APIToken != "" {
		masked.Backend.APIToken = "********"
	}
	return toml.Marshal(masked)
}

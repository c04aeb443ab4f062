package config

const (
	defaultConfigPath     = "~/.config/idconsole/config.toml"
	defaultBackendURL     = "http://127.0.0.1:8000"
	defaultRequestTimeout = 15
	defaultUploadTimeout  = 120
	defaultUserAgent      = "idconsole/dev"
	defaultPollInterval   = 4
	defaultSessionFile    = "~/.local/share/idconsole/session.json"
	defaultLocale         = "en"
	defaultWebBind        = "127.0.0.1:7600"
	defaultNotifyTimeout  = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultLogDir         = "~/.local/share/idconsole/logs"

	minRequestTimeout = 1
	maxRequestTimeout = 300
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Backend: Backend{
			URL:            defaultBackendURL,
			RequestTimeout: defaultRequestTimeout,
			UploadTimeout:  defaultUploadTimeout,
			UserAgent:      defaultUserAgent,
		},
		Live: Live{
			PollInterval: defaultPollInterval,
			PushEnabled:  true,
		},
		Session: Session{
			File: defaultSessionFile,
		},
		Console: Console{
			Locale: defaultLocale,
		},
		Web: Web{
			Bind: defaultWebBind,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}

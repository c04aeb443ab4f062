// Package config loads, normalizes, and validates idconsole configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// IDCONSOLE_BACKEND_URL and IDCONSOLE_API_TOKEN (optionally sourced from a
// .env file). The Config type centralizes every knob the CLI and the web
// console need: backend location and timeouts, live-update cadence, session
// storage, web bind address, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized URLs, canonical locales, and clear validation errors.
package config

package preflight

import (
	"context"
	"path/filepath"

	"idconsole/internal/config"
	"idconsole/internal/i18n"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckBackend(ctx, cfg.Backend.URL, cfg.RequestTimeout()))
	results = append(results, CheckDirectoryAccess("Session directory", filepath.Dir(cfg.Session.File)))
	if cfg.Logging.Dir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Logging.Dir))
	}
	results = append(results, CheckTranslations(i18n.New()))

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

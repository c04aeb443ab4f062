package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"idconsole/internal/i18n"
)

const maxBackendCheckTimeout = 5 * time.Second

// CheckBackend verifies that the backend answers /whoami. An anonymous 401 or
// 403 still proves the service is up.
func CheckBackend(ctx context.Context, baseURL string, timeout time.Duration) Result {
	const name = "Backend"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if timeout <= 0 || timeout > maxBackendCheckTimeout {
		timeout = maxBackendCheckTimeout
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/whoami", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", base, err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", base, summarizeNetError(err))}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable, signed in)", base)}
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", base)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%s (unexpected status %d)", base, resp.StatusCode)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTranslations fails when any locale table has an empty entry.
func CheckTranslations(catalog *i18n.Catalog) Result {
	const name = "Translations"

	missing := catalog.Missing()
	if len(missing) == 0 {
		return Result{Name: name, Passed: true, Detail: strings.Join(i18n.SupportedLocales(), ", ") + " complete"}
	}
	locales := make([]string, 0, len(missing))
	for locale := range missing {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	parts := make([]string, 0, len(locales))
	for _, locale := range locales {
		keys := missing[locale]
		names := make([]string, 0, len(keys))
		for _, k := range keys {
			names = append(names, k.String())
		}
		parts = append(parts, fmt.Sprintf("%s missing %s", locale, strings.Join(names, ", ")))
	}
	return Result{Name: name, Detail: strings.Join(parts, "; ")}
}

func summarizeNetError(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "connection refused"
	}
	return err.Error()
}

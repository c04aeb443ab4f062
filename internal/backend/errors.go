package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"idconsole/internal/api"
	"idconsole/internal/services"
)

const maxErrorBody = 64 << 10

// HTTPError is a backend response with status 400 or above.
type HTTPError struct {
	Operation string
	Status    int
	Detail    string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: backend returned status %d: %s", e.Operation, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: backend returned status %d", e.Operation, e.Status)
}

// Is lets errors.Is classify HTTP failures with the shared sentinels.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case services.ErrHTTP:
		return true
	case services.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case services.ErrNotFound:
		return e.Status == http.StatusNotFound
	case services.ErrValidation:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	}
	return false
}

func decodeHTTPError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	herr := &HTTPError{Operation: operation, Status: resp.StatusCode}
	var payload api.ErrorResponse
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		herr.Detail = payload.Message()
	}
	if herr.Detail == "" && !strings.Contains(resp.Header.Get("Content-Type"), "json") {
		herr.Detail = strings.TrimSpace(string(body))
	}
	return herr
}

func transportError(ctx context.Context, operation string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, componentName, operation, "request timed out", err)
	}
	return services.Wrap(services.ErrNetwork, componentName, operation, "request failed", err)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.Status
	}
	return 0
}

// Message returns the user-facing text for err: the backend detail when
// present, otherwise a short classification.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var herr *HTTPError
	if errors.As(err, &herr) {
		if herr.Detail != "" {
			return herr.Detail
		}
		if text := http.StatusText(herr.Status); text != "" {
			return text
		}
		return fmt.Sprintf("status %d", herr.Status)
	}
	switch {
	case errors.Is(err, services.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, services.ErrChannel):
		return "live channel error"
	case errors.Is(err, services.ErrNetwork):
		return "network error"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return err.Error()
}

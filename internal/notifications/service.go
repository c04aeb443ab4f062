package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"idconsole/internal/api"
	"idconsole/internal/config"
	"idconsole/internal/i18n"
	"idconsole/internal/summary"
)

const userAgent = "idconsole"

// Service is the notification surface used by watchers.
type Service interface {
	NotifyJobFinished(ctx context.Context, job api.Job) error
	TestNotification(ctx context.Context) error
	Enabled() bool
}

// NewService builds an ntfy-backed service rendering messages with tr. When
// no topic is configured a no-op implementation is returned.
func NewService(cfg *config.Config, tr i18n.Translator) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		tr:       tr,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	tr       i18n.Translator
}

func (n *ntfyService) Enabled() bool { return true }

func (n *ntfyService) NotifyJobFinished(ctx context.Context, job api.Job) error {
	name := strings.TrimSpace(job.Filename)
	if name == "" {
		name = job.ID
	}
	data := payload{
		title:   fmt.Sprintf("idconsole - %s: %s", summary.StatusLabel(job.Status, n.tr), name),
		message: strings.Join(summary.Texts(summary.Derive(job, n.tr)), "\n"),
		tags:    []string{"idconsole", "job", string(job.Status)},
	}
	if job.Status == api.JobStatusFailed {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "idconsole - Test",
		message:  "Notification system test",
		tags:     []string{"idconsole", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobFinished(context.Context, api.Job) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
func (noopService) Enabled() bool                                    { return false }

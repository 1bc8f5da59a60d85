package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"recallhub/internal/config"
	"recallhub/internal/recalls"
)

const userAgent = "RecallHub-Go/0.1.0"

// Service defines the notification surface exposed to the ingestion and
// daemon components.
type Service interface {
	RunCompleted(ctx context.Context, run *recalls.Run)
	RunFailed(ctx context.Context, run *recalls.Run, cause string)
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when
// configured. When no ntfy topic is configured, a noop implementation is
// returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		sendRuns:   cfg.Notifications.Runs,
		sendErrors: cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	sendRuns   bool
	sendErrors bool
}

func (n *ntfyService) RunCompleted(ctx context.Context, run *recalls.Run) {
	if !n.sendRuns || run == nil {
		return
	}
	title := "RecallHub - Ingestion Complete"
	message := fmt.Sprintf("%s %s run: %d inserted, %d updated, %d skipped",
		run.Agency, run.Mode, run.Counts.Inserted, run.Counts.Updated, run.Counts.Skipped)
	if run.Status == recalls.RunPartial {
		title = "RecallHub - Ingestion Complete (with errors)"
		message = fmt.Sprintf("%s, %d failed", message, run.Counts.Failed)
	}
	_ = n.send(ctx, payload{
		title:   title,
		message: message,
		tags:    []string{"recallhub", "ingest", "completed"},
	})
}

func (n *ntfyService) RunFailed(ctx context.Context, run *recalls.Run, cause string) {
	if !n.sendRuns || run == nil {
		return
	}
	cause = strings.TrimSpace(cause)
	if cause == "" {
		cause = "unknown"
	}
	_ = n.send(ctx, payload{
		title:    "RecallHub - Ingestion Failed",
		message:  fmt.Sprintf("%s %s run failed: %s", run.Agency, run.Mode, cause),
		tags:     []string{"recallhub", "ingest", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.sendErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "RecallHub - Error",
		message:  builder.String(),
		tags:     []string{"recallhub", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "RecallHub - Test",
		message:  "Notification system test",
		tags:     []string{"recallhub", "test"},
		priority: "low",
	})
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

func (noopService) RunCompleted(context.Context, *recalls.Run)           {}
func (noopService) RunFailed(context.Context, *recalls.Run, string)      {}
func (noopService) NotifyError(context.Context, error, string) error     { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }

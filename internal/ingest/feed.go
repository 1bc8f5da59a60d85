package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"recallhub/internal/config"
	"recallhub/internal/services"
)

// maxFeedBytes bounds how much of a feed response is read. Agency feeds
// are paginated well below this.
const maxFeedBytes = 64 << 20

// payloadKeys are the envelope keys feeds wrap their item arrays in.
var payloadKeys = []string{"results", "items", "recalls", "notices", "data"}

// FeedConnector fetches a JSON feed over HTTP or from a local file and
// adapts its items into raw notices. It covers the common agency shape
// of either a bare array or an object wrapping one under a well-known
// key; agencies needing bespoke parsing get their own Connector.
type FeedConnector struct {
	agency string
	url    string
	client *http.Client
}

// NewFeedConnector builds a connector for one configured feed.
func NewFeedConnector(feed config.Feed, timeout time.Duration) *FeedConnector {
	return &FeedConnector{
		agency: strings.ToUpper(strings.TrimSpace(feed.Agency)),
		url:    feed.URL,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *FeedConnector) Agency() string {
	return c.agency
}

// Fetch retrieves and decodes the feed. The mode is appended as a query
// hint for feeds that support delta fetches; feeds that ignore it simply
// return their full payload.
func (c *FeedConnector) Fetch(ctx context.Context, mode string) ([]RawNotice, error) {
	payload, err := c.read(ctx, mode)
	if err != nil {
		return nil, err
	}
	items, err := decodeItems(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrConnector, "feed", c.agency, "malformed feed payload", err)
	}

	notices := make([]RawNotice, 0, len(items))
	for _, item := range items {
		notices = append(notices, RawNotice{Fields: item})
	}
	return notices, nil
}

func (c *FeedConnector) read(ctx context.Context, mode string) ([]byte, error) {
	if strings.HasPrefix(c.url, "http://") || strings.HasPrefix(c.url, "https://") {
		return c.readHTTP(ctx, mode)
	}

	path, err := config.ExpandPath(c.url)
	if err != nil {
		return nil, services.Wrap(services.ErrConnector, "feed", c.agency, "resolve feed path", err)
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConnector, "feed", c.agency, "read feed file", err)
	}
	return payload, nil
}

func (c *FeedConnector) readHTTP(ctx context.Context, mode string) ([]byte, error) {
	url := c.url
	if mode != "" && mode != "full" {
		separator := "?"
		if strings.Contains(url, "?") {
			separator = "&"
		}
		url += separator + "mode=" + mode
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConnector, "feed", c.agency, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, services.Wrap(services.ErrTimeout, "feed", c.agency, "fetch feed", err)
		}
		return nil, services.Wrap(services.ErrConnector, "feed", c.agency, "fetch feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, services.Wrap(services.ErrNotFound, "feed", c.agency, "feed endpoint missing", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrConnector, "feed", c.agency,
			fmt.Sprintf("feed returned status %d", resp.StatusCode), nil)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrConnector, "feed", c.agency, "read feed body", err)
	}
	return payload, nil
}

// decodeItems accepts either a top-level JSON array of objects or an
// object that wraps such an array under one of the payload keys.
func decodeItems(payload []byte) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return nil, fmt.Errorf("empty feed payload")
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []map[string]any
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, err
	}
	for _, key := range payloadKeys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var items []map[string]any
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode %q array: %w", key, err)
		}
		return items, nil
	}
	return nil, fmt.Errorf("feed payload carries no recognizable item array")
}

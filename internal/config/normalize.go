package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeMatching()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeIngest() {
	if c.Ingest.PollInterval <= 0 {
		c.Ingest.PollInterval = defaultPollInterval
	}
	if c.Ingest.FetchTimeout <= 0 {
		c.Ingest.FetchTimeout = defaultFetchTimeout
	}
	if c.Ingest.ItemTimeout <= 0 {
		c.Ingest.ItemTimeout = defaultItemTimeout
	}
	if c.Ingest.RunRetentionDays <= 0 {
		c.Ingest.RunRetentionDays = defaultRunRetentionDays
	}
	for i := range c.Ingest.Feeds {
		feed := &c.Ingest.Feeds[i]
		feed.Agency = strings.ToUpper(strings.TrimSpace(feed.Agency))
		feed.URL = strings.TrimSpace(feed.URL)
		feed.Mode = strings.ToLower(strings.TrimSpace(feed.Mode))
		if feed.Mode == "" {
			feed.Mode = "delta"
		}
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.ResultLimit <= 0 {
		c.Matching.ResultLimit = defaultResultLimit
	}
	if c.Matching.MinNameScore <= 0 {
		c.Matching.MinNameScore = defaultMinNameScore
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

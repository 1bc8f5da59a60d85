package config

import (
	"errors"
	"fmt"
)

var validModes = map[string]struct{}{
	"delta":       {},
	"full":        {},
	"incremental": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateIngest() error {
	seen := make(map[string]struct{}, len(c.Ingest.Feeds))
	for i, feed := range c.Ingest.Feeds {
		if feed.Agency == "" {
			return fmt.Errorf("ingest.feeds[%d]: agency must be set", i)
		}
		if feed.URL == "" {
			return fmt.Errorf("ingest.feeds[%d] (%s): url must be set", i, feed.Agency)
		}
		if _, ok := validModes[feed.Mode]; !ok {
			return fmt.Errorf("ingest.feeds[%d] (%s): mode must be delta, full, or incremental", i, feed.Agency)
		}
		key := feed.Agency + "/" + feed.Mode
		if _, dup := seen[key]; dup {
			return fmt.Errorf("ingest.feeds: duplicate feed for %s mode %s", feed.Agency, feed.Mode)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.ResultLimit > 100 {
		return errors.New("matching.result_limit must be 100 or lower")
	}
	if c.Matching.MinNameScore < 0 || c.Matching.MinNameScore > 1 {
		return errors.New("matching.min_name_score must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

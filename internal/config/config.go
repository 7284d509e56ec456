package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultPath = "./schedwatch.json"

// Default returns a config with every default applied.
func Default() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Parse decodes JSON or YAML (by extension) strictly: unknown fields and
// trailing data are rejected.
func Parse(path string, data []byte) (*Config, error) {
	var cfg Config
	if err := decodeStrict(path, data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads, normalizes and validates the config at path. When allowMissing
// is set and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if allowMissing && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg, err := Parse(path, b)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize fills omitted fields with defaults.
func (c *Config) Normalize() {
	if strings.TrimSpace(c.Schedule.Path) == "" {
		c.Schedule.Path = DefaultSchedulePath
	}
	if strings.TrimSpace(c.Schedule.PollInterval) == "" {
		c.Schedule.PollInterval = DefaultPollInterval
	}
	if c.Watch.Enabled == nil {
		c.Watch.Enabled = boolPtr(true)
	}
	if strings.TrimSpace(c.Watch.RestartBackoffMax) == "" {
		c.Watch.RestartBackoffMax = DefaultRestartBackoffMax
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Console == nil {
		c.Logging.Console = boolPtr(true)
	}
	if strings.TrimSpace(c.Digest.Spec) == "" {
		c.Digest.Spec = DefaultDigestSpec
	}
	if strings.TrimSpace(c.Viewer.Title) == "" {
		c.Viewer.Title = DefaultViewerTitle
	}
}

func (c *Config) Validate() error {
	var errs []error
	for _, f := range []struct {
		field durationField
		raw   string
	}{
		{pollIntervalField, c.Schedule.PollInterval},
		{watchBackoffField, c.Watch.RestartBackoffMax},
		{retryBaseField, c.Notifier.RetryBase},
		{retryMaxDelayField, c.Notifier.RetryMaxDelay},
	} {
		if _, err := f.field.parse(f.raw); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Notifier.Workers < 0 {
		errs = append(errs, errors.New("notifier.workers: must be >= 0"))
	}
	if c.Notifier.QueueSize < 0 {
		errs = append(errs, errors.New("notifier.queue_size: must be >= 0"))
	}
	if c.Notifier.RatePerSec < 0 {
		errs = append(errs, errors.New("notifier.rate_per_sec: must be >= 0"))
	}
	if c.Notifier.RetryMax != nil && *c.Notifier.RetryMax < 0 {
		errs = append(errs, errors.New("notifier.retry_max: must be >= 0"))
	}
	if tg := c.Notifier.Telegram; tg.Enabled {
		if tg.ChatID == 0 {
			errs = append(errs, errors.New("notifier.telegram.chat_id: required when telegram is enabled"))
		}
		if strings.TrimSpace(tg.Token) == "" && !tg.TokenFromKeyring {
			errs = append(errs, errors.New("notifier.telegram: token or token_from_keyring required"))
		}
	}
	return errors.Join(errs...)
}

// SchedulePath returns the schedule path with $PROJECT_ROOT applied.
func (c *Config) SchedulePath() string { return ResolvePath(c.Schedule.Path) }

// ResolvePath joins a relative p onto $PROJECT_ROOT when that is set.
func ResolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if root := strings.TrimSpace(os.Getenv("PROJECT_ROOT")); root != "" {
		return filepath.Join(root, p)
	}
	return p
}

func (c *Config) PollInterval() time.Duration {
	return pollIntervalField.value(c.Schedule.PollInterval)
}

func (c *Config) WatchBackoffMax() time.Duration {
	return watchBackoffField.value(c.Watch.RestartBackoffMax)
}

func (c *Config) RetryBase() time.Duration { return retryBaseField.value(c.Notifier.RetryBase) }

func (c *Config) RetryMaxDelay() time.Duration {
	return retryMaxDelayField.value(c.Notifier.RetryMaxDelay)
}

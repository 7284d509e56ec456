package config

import (
	"fmt"
	"strings"
	"time"
)

// durationField is one duration-valued setting. Blank means the default.
// An explicit zero means the default too, unless positive is set, in which
// case it is rejected.
type durationField struct {
	path     string
	def      time.Duration
	positive bool
}

var (
	pollIntervalField  = durationField{path: "schedule.poll_interval", def: 250 * time.Millisecond, positive: true}
	watchBackoffField  = durationField{path: "watch.restart_backoff_max", def: 5 * time.Second}
	retryBaseField     = durationField{path: "notifier.retry_base", def: 500 * time.Millisecond}
	retryMaxDelayField = durationField{path: "notifier.retry_max_delay", def: 10 * time.Second}
)

func (f durationField) parse(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return f.def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", f.path, raw, err)
	}
	switch {
	case d < 0:
		return 0, fmt.Errorf("%s: must be >= 0", f.path)
	case d == 0 && f.positive:
		return 0, fmt.Errorf("%s: must be > 0", f.path)
	case d == 0:
		return f.def, nil
	}
	return d, nil
}

// value is parse for an already validated config.
func (f durationField) value(raw string) time.Duration {
	d, err := f.parse(raw)
	if err != nil {
		return f.def
	}
	return d
}

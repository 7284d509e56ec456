package notifier

import (
	"context"
	"runtime"
	"time"
)

// SoundHint names a platform sound. Its meaning depends on the sender.
type SoundHint string

// DefaultSound returns the stock alert sound of the running platform.
func DefaultSound() SoundHint {
	switch runtime.GOOS {
	case "darwin":
		return "Submarine"
	case "windows":
		return "Mail"
	default:
		return "message-new-instant"
	}
}

// Alert is one notification request.
type Alert struct {
	Title string
	Body  string
	Sound SoundHint

	// Key identifies the source (task key or "digest"); used in logs and events.
	Key string
	At  time.Time
}

// Sender is the platform delivery capability.
type Sender interface {
	Name() string
	Send(ctx context.Context, a Alert) error
}

// Config controls the async delivery pipeline.
type Config struct {
	Workers       int
	QueueSize     int
	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
	Sound         SoundHint
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 3
	}
	c.RetryMax = max(c.RetryMax, 0)
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 10 * time.Second
	}
	if c.Sound == "" {
		c.Sound = DefaultSound()
	}
	return c
}

type HistoryItem struct {
	At     time.Time
	Sender string
	Title  string
}

// DeliveryEvent is published on the event bus for delivery outcomes.
type DeliveryEvent struct {
	Sender   string `json:"sender"`
	Key      string `json:"key"`
	Title    string `json:"title"`
	Attempts int    `json:"attempts"`
}

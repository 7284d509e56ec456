package config

// Config is the on-disk engine configuration (JSON or YAML).
//
// All durations are Go duration strings (e.g. "250ms", "5s", "1m").
// Omitted fields take the defaults applied by Normalize.
type Config struct {
	Schedule ScheduleConfig `json:"schedule"`
	Watch    WatchConfig    `json:"watch"`
	Logging  LoggingConfig  `json:"logging"`
	Notifier NotifierConfig `json:"notifier"`
	Digest   DigestConfig   `json:"digest"`
	Viewer   ViewerConfig   `json:"viewer"`
	Systemd  SystemdConfig  `json:"systemd"`
}

type ScheduleConfig struct {
	// Path is resolved against $PROJECT_ROOT when relative.
	Path         string `json:"path,omitempty"`
	PollInterval string `json:"poll_interval,omitempty"`

	// CarryStateOnReload keeps per-task alert state across reloads for tasks
	// whose title and time range did not change. Off by default: a reload
	// starts from a fresh record and a still-due task alerts again.
	CarryStateOnReload bool `json:"carry_state_on_reload,omitempty"`
}

type WatchConfig struct {
	// Enabled is a pointer so we can distinguish "omitted" (default true)
	// from an explicit false.
	Enabled           *bool  `json:"enabled,omitempty"`
	RestartBackoffMax string `json:"restart_backoff_max,omitempty"`
}

type LoggingConfig struct {
	Level   string            `json:"level,omitempty"`
	Console *bool             `json:"console,omitempty"`
	File    LoggingFileConfig `json:"file"`
}

type LoggingFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// NotifierConfig controls async alert delivery.
//
// Defaults:
//   - workers: 2
//   - queue_size: 64
//   - rate_per_sec: 3
//   - retry_max: 2
//   - retry_base: "500ms"
//   - retry_max_delay: "10s"
type NotifierConfig struct {
	Workers       int    `json:"workers,omitempty"`
	QueueSize     int    `json:"queue_size,omitempty"`
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	RetryMax      *int   `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`

	Desktop  DesktopConfig  `json:"desktop"`
	Telegram TelegramConfig `json:"telegram"`
	Log      LogSinkConfig  `json:"log"`
}

type DesktopConfig struct {
	Enabled *bool `json:"enabled,omitempty"`
	// Sound overrides the platform default sound name.
	Sound string `json:"sound,omitempty"`
}

type TelegramConfig struct {
	Enabled          bool   `json:"enabled"`
	Token            string `json:"token,omitempty"`
	TokenFromKeyring bool   `json:"token_from_keyring,omitempty"`
	ChatID           int64  `json:"chat_id,omitempty"`
	ThreadID         int    `json:"thread_id,omitempty"`
}

type LogSinkConfig struct {
	Enabled bool `json:"enabled"`
}

// DigestConfig schedules a daily agenda notification.
type DigestConfig struct {
	Enabled bool   `json:"enabled"`
	Spec    string `json:"spec,omitempty"`
}

type ViewerConfig struct {
	Title string `json:"title,omitempty"`
}

type SystemdConfig struct {
	Notify *bool `json:"notify,omitempty"`
}

const (
	DefaultSchedulePath      = "assets/schedule.json"
	DefaultPollInterval      = "250ms"
	DefaultRestartBackoffMax = "5s"
	DefaultDigestSpec        = "0 8 * * *"
	DefaultViewerTitle       = "Task Viewer"
)

func boolPtr(b bool) *bool { return &b }

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func (c *Config) WatchEnabled() bool   { return boolOr(c.Watch.Enabled, true) }
func (c *Config) ConsoleLogging() bool { return boolOr(c.Logging.Console, true) }
func (c *Config) DesktopEnabled() bool { return boolOr(c.Notifier.Desktop.Enabled, true) }
func (c *Config) SystemdNotify() bool  { return boolOr(c.Systemd.Notify, true) }

func (c *Config) NotifierRetryMax() int {
	if c.Notifier.RetryMax == nil {
		return 2
	}
	return *c.Notifier.RetryMax
}

package app

import (
	"io"

	"schedwatch/internal/config"
	"schedwatch/internal/notifier"
	"schedwatch/internal/notifier/desktop"
	"schedwatch/internal/notifier/telegram"
	logx "schedwatch/pkg/logx"
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.ConsoleLogging(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

// mapNotifierConfig reads an already validated config; malformed durations
// have been rejected by config.Validate.
func mapNotifierConfig(cfg *config.Config) notifier.Config {
	return notifier.Config{
		Workers:       cfg.Notifier.Workers,
		QueueSize:     cfg.Notifier.QueueSize,
		RatePerSec:    cfg.Notifier.RatePerSec,
		RetryMax:      cfg.NotifierRetryMax(),
		RetryBase:     cfg.RetryBase(),
		RetryMaxDelay: cfg.RetryMaxDelay(),
		Sound:         notifier.SoundHint(cfg.Notifier.Desktop.Sound),
	}
}

var newDesktopSender = func(log logx.Logger) (notifier.Sender, error) {
	s, err := desktop.New(log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// buildSenders maps the notifier sections to senders. A desktop backend that
// cannot start degrades to the log sender instead of failing startup.
func buildSenders(cfg *config.Config, log logx.Logger) ([]notifier.Sender, error) {
	var out []notifier.Sender
	wantLog := cfg.Notifier.Log.Enabled

	if cfg.DesktopEnabled() {
		s, err := newDesktopSender(log.With(logx.Component("notify.desktop")))
		if err != nil {
			log.Warn("desktop notifications unavailable; falling back to log", logx.Err(err))
			wantLog = true
		} else {
			out = append(out, s)
		}
	}

	if tg := cfg.Notifier.Telegram; tg.Enabled {
		s, err := telegram.New(telegram.Config{
			Token:            tg.Token,
			TokenFromKeyring: tg.TokenFromKeyring,
			ChatID:           tg.ChatID,
			ThreadID:         tg.ThreadID,
		}, log.With(logx.Component("notify.telegram")))
		if err != nil {
			closeSenders(out, log)
			return nil, err
		}
		out = append(out, s)
	}

	if wantLog || len(out) == 0 {
		out = append(out, notifier.LogSender{Log: log.With(logx.Component("notify.log"))})
	}
	return out, nil
}

// closeSenders releases senders that hold a connection (the desktop D-Bus
// session). Errors are only logged.
func closeSenders(senders []notifier.Sender, log logx.Logger) {
	for _, s := range senders {
		c, ok := s.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			log.Warn("sender close failed", logx.String("sender", s.Name()), logx.Err(err))
		}
	}
}

package notifier

import (
	"context"

	logx "schedwatch/pkg/logx"
)

// LogSender writes alerts to the log. Useful headless and as a fallback
// when no platform sender is available.
type LogSender struct {
	Log logx.Logger
}

func (LogSender) Name() string { return "log" }

func (l LogSender) Send(_ context.Context, a Alert) error {
	l.Log.Info("task alert",
		logx.String("title", a.Title),
		logx.String("body", a.Body),
		logx.String("sound", string(a.Sound)),
		logx.String("key", a.Key),
	)
	return nil
}

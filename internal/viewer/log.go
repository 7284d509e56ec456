package viewer

import (
	"context"
	"strings"
	"time"

	"schedwatch/internal/schedule"
	logx "schedwatch/pkg/logx"
)

// LogOpener "opens" the viewer by writing the schedule to the log. Used by
// the daemon, which has no terminal to draw on.
type LogOpener struct {
	Log logx.Logger
}

func (o LogOpener) Open(_ context.Context, title string, s *schedule.Schedule) error {
	md := Markdown(title, s, time.Now().Weekday())
	days := 0
	if s != nil {
		days = len(s.Days)
	}
	o.Log.Info("schedule snapshot",
		logx.String("title", title),
		logx.Int("days", days),
		logx.Int("tasks", s.TaskCount()),
	)
	for _, line := range strings.Split(strings.TrimSpace(md), "\n") {
		if line == "" {
			continue
		}
		o.Log.Info(line)
	}
	return nil
}

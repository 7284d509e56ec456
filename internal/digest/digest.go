// Package digest sends a daily agenda of the current weekday's tasks on a
// cron schedule.
package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"schedwatch/internal/eventbus"
	"schedwatch/internal/notifier"
	"schedwatch/internal/schedule"
	logx "schedwatch/pkg/logx"
)

// Source provides the current schedule.
type Source interface {
	Snapshot() *schedule.Schedule
}

type Notifier interface {
	Notify(ctx context.Context, a notifier.Alert) error
}

type Options struct {
	// Spec is a cron expression (seconds optional) or a descriptor like "@daily".
	Spec     string
	Location *time.Location
	Source   Source
	Notifier Notifier
	Bus      eventbus.Bus
	Log      logx.Logger
}

type Digest struct {
	spec     string
	sched    cron.Schedule
	loc      *time.Location
	src      Source
	notifier Notifier
	bus      eventbus.Bus
	log      logx.Logger
}

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func New(opts Options) (*Digest, error) {
	spec := strings.TrimSpace(opts.Spec)
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("digest spec %q: %w", spec, err)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Log.IsZero() {
		opts.Log = logx.Nop()
	}
	return &Digest{
		spec:     spec,
		sched:    sched,
		loc:      opts.Location,
		src:      opts.Source,
		notifier: opts.Notifier,
		bus:      opts.Bus,
		log:      opts.Log,
	}, nil
}

// Next returns the first activation after t.
func (d *Digest) Next(t time.Time) time.Time { return d.sched.Next(t.In(d.loc)) }

// Run starts the cron runner and blocks until ctx is done.
func (d *Digest) Run(ctx context.Context) error {
	c := cron.New(cron.WithParser(parser), cron.WithLocation(d.loc))
	c.Schedule(d.sched, cron.FuncJob(func() {
		if err := d.Send(ctx, time.Now().In(d.loc)); err != nil {
			d.log.Warn("digest failed", logx.Err(err))
		}
	}))
	c.Start()
	d.log.Info("digest scheduled", logx.String("spec", d.spec), logx.Time("next", d.Next(time.Now())))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Send notifies the agenda for now's weekday. Days without tasks send nothing.
func (d *Digest) Send(ctx context.Context, now time.Time) error {
	s := d.src.Snapshot()
	body, n := Agenda(s, now.Weekday())
	if n == 0 {
		d.log.Debug("digest skipped; no tasks today", logx.String("weekday", now.Weekday().String()))
		return nil
	}
	a := notifier.Alert{
		Title: fmt.Sprintf("Today's tasks (%s)", now.Weekday()),
		Body:  body,
		Key:   "digest",
		At:    now,
	}
	if err := d.notifier.Notify(ctx, a); err != nil {
		return err
	}
	eventbus.Publish(d.bus, eventbus.DigestSent, nil, map[string]any{"weekday": now.Weekday().String(), "tasks": n})
	return nil
}

// Agenda lists the tasks of every day matching wd, one line per task,
// in file order. It returns the body and the number of tasks listed.
func Agenda(s *schedule.Schedule, wd time.Weekday) (string, int) {
	if s == nil {
		return "", 0
	}
	var b strings.Builder
	n := 0
	for _, day := range s.Days {
		if !day.Matches(wd) {
			continue
		}
		for _, t := range day.Tasks {
			if n > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%s-%s %s", shortClock(t.StartTime), shortClock(t.EndTime), t.Title)
			n++
		}
	}
	return b.String(), n
}

// shortClock renders "09:00:00" as "09:00"; unparsable values are shown as-is.
func shortClock(raw string) string {
	d, err := schedule.ParseClock(raw)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// Package controller owns the loaded schedule and its alert record, and runs
// the poll loop that turns them into notifications.
//
// One mutex guards the schedule, the record, the generation counter and the
// viewer latch. The file watcher never takes it; it only marks a capacity-1
// signal channel that PollTick drains. Reloads decode outside the lock and
// swap inside it, so a tick always evaluates one whole generation.
package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"schedwatch/internal/alert"
	"schedwatch/internal/eventbus"
	"schedwatch/internal/notifier"
	"schedwatch/internal/schedule"
	logx "schedwatch/pkg/logx"
)

// Notifier accepts alerts for delivery. Implementations must not block for
// long; notifier.Service only enqueues.
type Notifier interface {
	Notify(ctx context.Context, a notifier.Alert) error
}

// ViewerOpener renders a schedule snapshot. It owns the snapshot and may
// mutate it freely.
type ViewerOpener interface {
	Open(ctx context.Context, title string, s *schedule.Schedule) error
}

type Options struct {
	Path     string
	Loader   *schedule.Loader
	Signal   <-chan struct{}
	Notifier Notifier
	Bus      eventbus.Bus
	Log      logx.Logger

	// Interval between poll ticks. Defaults to 250ms.
	Interval time.Duration
	// CarryState keeps fired/not-due entries across reloads for tasks whose
	// title and time range are unchanged at the same key.
	CarryState  bool
	ViewerTitle string

	Now func() time.Time
}

// ReloadEvent is published with ScheduleLoaded and ScheduleReloadFailed.
type ReloadEvent struct {
	Path       string `json:"path"`
	Generation uint64 `json:"generation"`
	Tasks      int    `json:"tasks"`
}

// AlertEvent is published with AlertFired and AlertMissed.
type AlertEvent struct {
	Key        string `json:"key"`
	Title      string `json:"title"`
	Generation uint64 `json:"generation"`
}

type Controller struct {
	path     string
	loader   *schedule.Loader
	signal   <-chan struct{}
	notifier Notifier
	bus      eventbus.Bus
	log      logx.Logger
	interval time.Duration
	carry    bool
	title    string
	now      func() time.Time

	mu     sync.Mutex
	sched  *schedule.Schedule
	record alert.Record
	gen    uint64

	viewerRequested bool
	viewerOpen      bool
	viewerCh        chan struct{}

	shutdownOnce sync.Once
	shutdown     chan struct{}

	// unix nanos of the last completed PollTick
	lastTick atomic.Int64
}

func New(opts Options) *Controller {
	if opts.Loader == nil {
		opts.Loader = schedule.NewLoader(nil)
	}
	if opts.Log.IsZero() {
		opts.Log = logx.Nop()
	}
	if opts.Interval <= 0 {
		opts.Interval = 250 * time.Millisecond
	}
	if opts.ViewerTitle == "" {
		opts.ViewerTitle = "Task Viewer"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		path:     opts.Path,
		loader:   opts.Loader,
		signal:   opts.Signal,
		notifier: opts.Notifier,
		bus:      opts.Bus,
		log:      opts.Log,
		interval: opts.Interval,
		carry:    opts.CarryState,
		title:    opts.ViewerTitle,
		now:      opts.Now,
		record:   alert.Record{},
		viewerCh: make(chan struct{}, 1),
		shutdown: make(chan struct{}),
	}
}

// LoadInitial performs the first load. Its error is meant to be fatal.
func (c *Controller) LoadInitial() error {
	s, err := c.loader.Load(c.path)
	if err != nil {
		return err
	}
	gen := c.swap(s)
	c.log.Info("schedule loaded", logx.String("path", c.path), logx.Int("tasks", s.TaskCount()), logx.Uint64("generation", gen))
	eventbus.Publish(c.bus, eventbus.ScheduleLoaded, nil, ReloadEvent{Path: c.path, Generation: gen, Tasks: s.TaskCount()})
	return nil
}

// Reload loads the file again and swaps it in. On failure the current
// schedule stays authoritative.
func (c *Controller) Reload() error {
	s, err := c.loader.Load(c.path)
	if err != nil {
		c.mu.Lock()
		gen := c.gen
		c.mu.Unlock()
		c.log.Warn("schedule reload failed; keeping previous schedule", logx.String("path", c.path), logx.Uint64("generation", gen), logx.Err(err))
		eventbus.Publish(c.bus, eventbus.ScheduleReloadFailed, err, ReloadEvent{Path: c.path, Generation: gen})
		return err
	}
	gen := c.swap(s)
	c.log.Info("schedule reloaded", logx.String("path", c.path), logx.Int("tasks", s.TaskCount()), logx.Uint64("generation", gen))
	eventbus.Publish(c.bus, eventbus.ScheduleLoaded, nil, ReloadEvent{Path: c.path, Generation: gen, Tasks: s.TaskCount()})
	return nil
}

func (c *Controller) swap(s *schedule.Schedule) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.carry && c.sched != nil {
		c.record = alert.Carry(c.record, c.sched, s)
	} else {
		c.record = alert.Record{}
	}
	c.sched = s
	c.gen++
	return c.gen
}

// PollTick runs one iteration: apply a pending file change, then evaluate
// today's tasks at now and hand fired alerts to the notifier.
func (c *Controller) PollTick(ctx context.Context, now time.Time) {
	select {
	case <-c.signal:
		_ = c.Reload()
	default:
	}

	fired, missed, gen := c.evaluate(now)

	for _, a := range missed {
		c.log.Debug("alert window missed", logx.String("key", a.Key), logx.String("title", a.Title))
		eventbus.Publish(c.bus, eventbus.AlertMissed, nil, AlertEvent{Key: a.Key, Title: a.Title, Generation: gen})
	}
	for _, a := range fired {
		c.log.Info("task due", logx.String("key", a.Key), logx.String("title", a.Title))
		eventbus.Publish(c.bus, eventbus.AlertFired, nil, AlertEvent{Key: a.Key, Title: a.Title, Generation: gen})
		if c.notifier == nil {
			continue
		}
		// A failed hand-off only loses this alert; the others still go out.
		if err := c.notifier.Notify(ctx, a); err != nil {
			c.log.Warn("notify failed", logx.String("key", a.Key), logx.String("title", a.Title), logx.Err(err))
			if !errors.Is(err, notifier.ErrQueueFull) {
				eventbus.Publish(c.bus, eventbus.NotifyFailed, err, AlertEvent{Key: a.Key, Title: a.Title, Generation: gen})
			}
		}
	}
	c.lastTick.Store(now.UnixNano())
}

// LastTick reports the time passed to the last completed PollTick, or the
// zero time before the first one.
func (c *Controller) LastTick() time.Time {
	n := c.lastTick.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (c *Controller) evaluate(now time.Time) (fired, missed []notifier.Alert, gen uint64) {
	wd := now.Weekday()

	c.mu.Lock()
	defer c.mu.Unlock()
	gen = c.gen
	if c.sched == nil {
		return nil, nil, gen
	}
	for di, day := range c.sched.Days {
		if !day.Matches(wd) {
			continue
		}
		for ti, t := range day.Tasks {
			k := schedule.TaskKey{Day: di, Task: ti}
			prev := c.record.Get(k)
			next, fire := alert.Decide(t, now, prev)
			c.record.Set(k, next)

			a := notifier.Alert{Title: t.Title, Body: t.Details, Key: k.String(), At: now}
			switch {
			case fire:
				fired = append(fired, a)
			case next == alert.StateFired && prev != alert.StateFired:
				missed = append(missed, a)
			}
		}
	}
	return fired, missed, gen
}

// Run ticks until ctx is done or RequestShutdown is called.
func (c *Controller) Run(ctx context.Context) error {
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.shutdown:
			return nil
		case <-t.C:
			c.PollTick(ctx, c.now())
		}
	}
}

func (c *Controller) RequestShutdown() {
	c.shutdownOnce.Do(func() { close(c.shutdown) })
}

func (c *Controller) IsShutdown() bool {
	select {
	case <-c.shutdown:
		return true
	default:
		return false
	}
}

// Done is closed once RequestShutdown has been called.
func (c *Controller) Done() <-chan struct{} { return c.shutdown }

// Snapshot returns a deep copy of the current schedule, nil before the first load.
func (c *Controller) Snapshot() *schedule.Schedule {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.Clone()
}

func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// State reports the recorded lifecycle value for k in the current generation.
func (c *Controller) State(k schedule.TaskKey) alert.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.Get(k)
}

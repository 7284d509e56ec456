package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"schedwatch/internal/config"
	"schedwatch/internal/controller"
	"schedwatch/internal/digest"
	"schedwatch/internal/eventbus"
	"schedwatch/internal/notifier"
	"schedwatch/internal/runtime/supervisor"
	"schedwatch/internal/schedule"
	"schedwatch/internal/viewer"
	"schedwatch/internal/watcher"
	logx "schedwatch/pkg/logx"
)

type Options struct {
	ConfigPath string
	// AllowMissingConfig makes an absent config file fall back to defaults.
	AllowMissingConfig bool
	// SchedulePath overrides schedule.path from the config.
	SchedulePath string
	// Viewer handles viewer-open requests. Defaults to the log viewer.
	Viewer controller.ViewerOpener
}

type App struct {
	cfg *config.Config
	sup *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	watch   *watcher.Watcher
	notif   *notifier.Service
	senders []notifier.Sender
	ctrl    *controller.Controller
	digest  *digest.Digest
	viewer  controller.ViewerOpener
}

func NewApp(opts Options) (*App, error) {
	cfgPath := strings.TrimSpace(opts.ConfigPath)
	if cfgPath == "" {
		cfgPath = config.DefaultPath
	}
	cfg, err := config.Load(cfgPath, opts.AllowMissingConfig)
	if err != nil {
		return nil, err
	}
	if p := strings.TrimSpace(opts.SchedulePath); p != "" {
		cfg.Schedule.Path = p
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	appLog := log.With(logx.Component("app"))

	bus := eventbus.New()
	schedPath := cfg.SchedulePath()

	var w *watcher.Watcher
	var signal <-chan struct{}
	if cfg.WatchEnabled() {
		w = watcher.New(schedPath, watcher.Options{
			Log:        log.With(logx.Component("watcher")),
			Bus:        bus,
			BackoffMax: cfg.WatchBackoffMax(),
		})
		signal = w.Signal()
	}

	senders, err := buildSenders(cfg, log)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	fail := func(err error) (*App, error) {
		closeSenders(senders, appLog)
		_ = logSvc.Close()
		return nil, err
	}
	notif := notifier.New(mapNotifierConfig(cfg), senders, log.With(logx.Component("notifier")), bus)

	ctrl := controller.New(controller.Options{
		Path:        schedPath,
		Loader:      schedule.NewLoader(nil),
		Signal:      signal,
		Notifier:    notif,
		Bus:         bus,
		Log:         log.With(logx.Component("controller")),
		Interval:    cfg.PollInterval(),
		CarryState:  cfg.Schedule.CarryStateOnReload,
		ViewerTitle: cfg.Viewer.Title,
	})
	// The first load is fatal: there is nothing to watch over without it.
	if err := ctrl.LoadInitial(); err != nil {
		return fail(fmt.Errorf("initial schedule load: %w", err))
	}

	var dg *digest.Digest
	if cfg.Digest.Enabled {
		dg, err = digest.New(digest.Options{
			Spec:     cfg.Digest.Spec,
			Source:   ctrl,
			Notifier: notif,
			Bus:      bus,
			Log:      log.With(logx.Component("digest")),
		})
		if err != nil {
			return fail(err)
		}
	}

	v := opts.Viewer
	if v == nil {
		v = viewer.LogOpener{Log: log.With(logx.Component("viewer"))}
	}

	return &App{
		cfg:     cfg,
		log:     appLog,
		logs:    logSvc,
		bus:     bus,
		watch:   w,
		notif:   notif,
		senders: senders,
		ctrl:    ctrl,
		digest:  dg,
		viewer:  v,
	}, nil
}

func (a *App) Controller() *controller.Controller { return a.ctrl }

func (a *App) Bus() eventbus.Bus { return a.bus }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.NewSupervisor(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	// Log events for observability/debug. Subscribe before anything publishes.
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("events.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.logEvent(e)
			}
		}
	})

	// The notifier outlives the loops so Stop can drain what they queued.
	a.notif.Start(context.WithoutCancel(ctx))

	if a.watch != nil {
		a.sup.Go("schedule.watch", a.watch.Run)
	}
	a.sup.Go("controller.poll", a.ctrl.Run)
	a.sup.Go("viewer.wait", func(c context.Context) error {
		return a.ctrl.RunViewer(c, a.viewer)
	})
	if a.digest != nil {
		a.sup.Go("digest", a.digest.Run)
	}
	a.sup.Go0("signals", a.handleSignals)
	a.sup.Go0("systemd.watchdog", a.watchdog)

	a.notifySystemd(daemon.SdNotifyReady)
	a.log.Info("app started",
		logx.String("schedule", a.cfg.SchedulePath()),
		logx.Bool("watch", a.watch != nil),
		logx.Any("senders", a.notif.Senders()),
		logx.Duration("poll_interval", a.cfg.PollInterval()),
	)
	return nil
}

func (a *App) logEvent(e eventbus.Event) {
	fields := []logx.Field{logx.String("type", e.Type)}
	if e.Data != nil {
		fields = append(fields, logx.Any("data", e.Data))
	}
	if e.Err != nil {
		fields = append(fields, logx.Err(e.Err))
	}
	switch e.Type {
	case eventbus.WatchSetupFailed, eventbus.NotifyDropped:
		a.log.Warn("event", fields...)
	default:
		// Keep this debug-level; components already log the interesting ones.
		a.log.Debug("event", fields...)
	}
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.notifySystemd(daemon.SdNotifyStopping)

	// Stop the loops first so nothing new is handed to the notifier.
	a.ctrl.RequestShutdown()
	a.sup.Cancel()

	waitCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.sup.Wait(waitCtx)
	cancel()
	if err != nil {
		a.log.Warn("supervisor stop", logx.Err(err), logx.Any("still_running", a.sup.Running()))
	}

	// Drain queued alerts best-effort.
	drainCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	a.notif.Stop(drainCtx)
	cancel()
	closeSenders(a.senders, a.log)

	a.log.Info("stopped", logx.Int("delivered", len(a.notif.History())))
	_ = a.logs.Close()
	return nil
}

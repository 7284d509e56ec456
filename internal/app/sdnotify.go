package app

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "schedwatch/pkg/logx"
)

// Swapped in tests.
var (
	sdNotify          = daemon.SdNotify
	sdWatchdogEnabled = daemon.SdWatchdogEnabled
)

func (a *App) notifySystemd(state string) {
	if !a.cfg.SystemdNotify() {
		return
	}
	sent, err := sdNotify(false, state)
	if err != nil {
		a.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		a.log.Debug("sd_notify", logx.String("state", state))
	}
}

// watchdog pings systemd at half the configured WatchdogSec, but only while
// the poll loop keeps ticking. A loop stuck in a reload stops the pings and
// lets systemd restart the unit.
func (a *App) watchdog(ctx context.Context) {
	if !a.cfg.SystemdNotify() {
		return
	}
	every, err := sdWatchdogEnabled(false)
	if err != nil || every <= 0 {
		return
	}
	t := time.NewTicker(every / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.ctrl.Done():
			return
		case now := <-t.C:
			if !a.pollAlive(now, every) {
				a.log.Warn("poll loop stalled; withholding watchdog ping",
					logx.Time("last_tick", a.ctrl.LastTick()))
				continue
			}
			_, _ = sdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}

// pollAlive reports whether the controller ticked recently enough at now.
// The allowance is half the watchdog period, or two poll intervals when
// polling is slower than that.
func (a *App) pollAlive(now time.Time, every time.Duration) bool {
	last := a.ctrl.LastTick()
	if last.IsZero() {
		return false
	}
	allow := max(every/2, 2*a.cfg.PollInterval())
	return now.Sub(last) <= allow
}

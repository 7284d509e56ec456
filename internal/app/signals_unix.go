//go:build !windows

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// handleSignals maps SIGUSR1 to a viewer-open request.
func (a *App) handleSignals(ctx context.Context) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	defer signal.Stop(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			a.log.Info("viewer requested by signal")
			a.ctrl.RequestViewerOpen()
		}
	}
}

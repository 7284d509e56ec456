//go:build windows

package app

import "context"

func (a *App) handleSignals(ctx context.Context) {
	<-ctx.Done()
}

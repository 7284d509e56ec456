//go:build linux

package desktop

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"schedwatch/internal/notifier"
	logx "schedwatch/pkg/logx"
)

const (
	fdoDest   = "org.freedesktop.Notifications"
	fdoPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	fdoNotify = "org.freedesktop.Notifications.Notify"
)

type backend interface {
	notify(ctx context.Context, a notifier.Alert) error
	close() error
}

type dbusBackend struct {
	conn *dbus.Conn
}

// New connects to the session bus. It fails when no session bus is reachable
// (headless, ssh); callers fall back to the log sender.
func New(log logx.Logger) (*Sender, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("desktop: session bus: %w", err)
	}
	return &Sender{log: log, backend: &dbusBackend{conn: conn}}, nil
}

func (s *Sender) Send(ctx context.Context, a notifier.Alert) error {
	return s.backend.notify(ctx, a)
}

func (b *dbusBackend) notify(ctx context.Context, a notifier.Alert) error {
	hints := map[string]dbus.Variant{}
	if a.Sound != "" {
		hints["sound-name"] = dbus.MakeVariant(string(a.Sound))
	}
	obj := b.conn.Object(fdoDest, fdoPath)
	call := obj.CallWithContext(ctx, fdoNotify, 0,
		appName,   // app_name
		uint32(0), // replaces_id
		"",        // app_icon
		a.Title,
		a.Body,
		[]string{}, // actions
		hints,
		int32(-1), // expire_timeout: server default
	)
	if call.Err != nil {
		return fmt.Errorf("desktop: notify: %w", call.Err)
	}
	return nil
}

func (b *dbusBackend) close() error { return b.conn.Close() }

package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"schedwatch/internal/eventbus"
)

func TestMarkCoalesces(t *testing.T) {
	t.Parallel()
	w := New("/tmp/schedule.json", Options{})
	for i := 0; i < 5; i++ {
		w.Mark()
	}
	select {
	case <-w.Signal():
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-w.Signal():
		t.Fatal("signals must coalesce into one")
	default:
	}
}

func TestMatchesByBasename(t *testing.T) {
	t.Parallel()
	w := New("assets/schedule.json", Options{})
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "/abs/assets/schedule.json", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "assets/Schedule.JSON", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "assets/schedule.json", Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "assets/other.json", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "assets/schedule.json.swp", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		if got := w.matches(tt.ev); got != tt.want {
			t.Fatalf("matches(%v) = %v, want %v", tt.ev, got, tt.want)
		}
	}
}

func TestRunSignalsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.json")
	if err := os.WriteFile(path, []byte(`{"days":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	bus := eventbus.New()
	events, unsub := bus.Subscribe(16)
	defer unsub()

	w := New(path, Options{Bus: bus})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, events, eventbus.WatchStarted)

	if err := os.WriteFile(path, []byte(`{"days":[{"day_of_week":"Monday","tasks":[]}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-w.Signal():
	case <-time.After(5 * time.Second):
		t.Fatal("no signal after write")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunReportsSetupFailureAndRetries(t *testing.T) {
	bus := eventbus.New()
	events, unsub := bus.Subscribe(16)
	defer unsub()

	w := New(filepath.Join(t.TempDir(), "schedule.json"), Options{Bus: bus, BackoffMax: 10 * time.Millisecond})
	w.newWatcher = func() (*fsnotify.Watcher, error) { return nil, errors.New("inotify limit reached") }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	e := waitFor(t, events, eventbus.WatchSetupFailed)
	if !errors.Is(e.Err, ErrSetup) {
		t.Fatalf("setup failure not wrapped: %v", e.Err)
	}
	// a second report proves it retries instead of exiting
	waitFor(t, events, eventbus.WatchSetupFailed)

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func waitFor(t *testing.T, ch <-chan eventbus.Event, typ string) eventbus.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-ch:
			if e.Type == typ {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", typ)
			return eventbus.Event{}
		}
	}
}

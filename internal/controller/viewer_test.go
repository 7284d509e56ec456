package controller

import (
	"context"
	"testing"
	"time"

	"schedwatch/internal/schedule"
)

type fakeOpener struct {
	opened chan *schedule.Schedule
}

func (f *fakeOpener) Open(_ context.Context, title string, s *schedule.Schedule) error {
	s.Days[0].Tasks[0].Title = title
	f.opened <- s
	return nil
}

func TestViewerLatch(t *testing.T) {
	h := newHarness(t, oneMeeting, false)
	c := h.c

	if c.ConsumeViewerOpen() {
		t.Fatal("consume without request")
	}
	c.RequestViewerOpen()
	c.RequestViewerOpen()
	if !c.ConsumeViewerOpen() {
		t.Fatal("request not observed")
	}
	if c.ConsumeViewerOpen() {
		t.Fatal("request consumed twice")
	}
	if !c.ViewerOpen() {
		t.Fatal("viewer should be open after consume")
	}
	c.CloseViewer()
	if c.ViewerOpen() {
		t.Fatal("viewer still open after close")
	}
}

func TestRunViewerOpensSnapshot(t *testing.T) {
	h := newHarness(t, oneMeeting, false)
	op := &fakeOpener{opened: make(chan *schedule.Schedule, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.c.RunViewer(ctx, op) }()

	h.c.RequestViewerOpen()
	select {
	case s := <-op.opened:
		if s.Days[0].Tasks[0].Title != "Task Viewer" {
			t.Fatalf("title = %q", s.Days[0].Tasks[0].Title)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("viewer never opened")
	}
	if got := h.c.Snapshot().Days[0].Tasks[0].Title; got != "Team Meeting" {
		t.Fatalf("viewer mutation leaked into controller: %q", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunViewer did not stop")
	}
}

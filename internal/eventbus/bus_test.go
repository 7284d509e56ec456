package eventbus

import (
	"errors"
	"testing"
)

func TestPublishFanout(t *testing.T) {
	b := New()
	a, unsubA := b.Subscribe(4)
	c, unsubC := b.Subscribe(4)
	defer unsubA()
	defer unsubC()

	Publish(b, ScheduleReloadFailed, errors.New("bad json"), nil)

	for _, ch := range []<-chan Event{a, c} {
		e := <-ch
		if e.Type != ScheduleReloadFailed || e.Err == nil || e.Time.IsZero() {
			t.Fatalf("unexpected event: %+v", e)
		}
	}
}

func TestPublishDropsForSlowSubscriber(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	b.Publish(Event{Type: "one"})
	b.Publish(Event{Type: "two"}) // must not block

	if e := <-ch; e.Type != "one" {
		t.Fatalf("got %q, want first event kept", e.Type)
	}
	select {
	case e := <-ch:
		t.Fatalf("unexpected extra event %q", e.Type)
	default:
	}
}

func TestUnsubscribeClosesAndIsIdempotent(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(1)
	unsub()
	unsub()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	b.Publish(Event{Type: "after"}) // no panic
	Publish(nil, "nil bus", nil, nil)
}

package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the engine. Failures that used to be fatal in
// an ad hoc way (watch setup, notify delivery) are reported here instead.
const (
	ScheduleLoaded       = "schedule.loaded"
	ScheduleReloadFailed = "schedule.reload_failed"
	WatchStarted         = "watch.started"
	WatchSetupFailed     = "watch.setup_failed"
	WatchStopped         = "watch.stopped"
	AlertFired           = "alert.fired"
	AlertMissed          = "alert.missed"
	NotifySent           = "notify.sent"
	NotifyFailed         = "notify.failed"
	NotifyDropped        = "notify.dropped"
	ViewerOpened         = "viewer.opened"
	DigestSent           = "digest.sent"
)

// Event is a lightweight, in-memory signal used to decouple components.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Subscribers MUST use buffered channels.
//   - Slow subscribers may drop events (bounded backpressure).
type Event struct {
	Type string
	Time time.Time
	Err  error
	Data any
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns a simple in-memory fanout bus. It owns no goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]chan Event{}}
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	seq  atomic.Uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// Hold the read lock while sending: sends never block, and unsubscribe
	// takes the write lock before closing, so no send hits a closed channel.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, unsub
}

// Publish is a nil-safe helper so components can treat the bus as optional.
func Publish(b Bus, typ string, err error, data any) {
	if b == nil {
		return
	}
	b.Publish(Event{Type: typ, Time: time.Now(), Err: err, Data: data})
}

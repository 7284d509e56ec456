package notifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"schedwatch/internal/eventbus"
	rtsup "schedwatch/internal/runtime/supervisor"
	logx "schedwatch/pkg/logx"
)

var (
	ErrQueueFull = errors.New("notifier queue full")
	ErrStopped   = errors.New("notifier stopped")
	ErrSend      = errors.New("notify delivery failed")
)

const (
	historyCap  = 200
	sendTimeout = 10 * time.Second
)

// Service fans every queued alert out to all senders from a small worker
// pool. Sends share one rate limiter and retry with jittered backoff.
//
// It is safe for concurrent use.
type Service struct {
	cfg     Config
	senders []Sender
	limiter *rate.Limiter
	log     logx.Logger
	bus     eventbus.Bus

	mu      sync.Mutex
	queue   chan Alert // nil unless started
	sup     *rtsup.Supervisor
	closing bool
	// Notify calls that passed the open check but have not sent yet.
	inflight sync.WaitGroup

	hist history
}

func New(cfg Config, senders []Sender, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg = cfg.withDefaults()
	return &Service{
		cfg:     cfg,
		senders: append([]Sender(nil), senders...),
		// burst = rate, so a handful of tasks due together go out at once
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		log:     log,
		bus:     bus,
	}
}

// Senders returns the names of the configured senders.
func (s *Service) Senders() []string {
	out := make([]string, 0, len(s.senders))
	for _, sd := range s.senders {
		out = append(out, sd.Name())
	}
	return out
}

// Start launches the workers on ctx. Starting a running service is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue != nil {
		return
	}

	q := make(chan Alert, s.cfg.QueueSize)
	// delivery failures never cancel the pool; a panicking sender restarts its worker
	sup := rtsup.NewSupervisor(ctx, rtsup.WithLogger(s.log))
	for i := range s.cfg.Workers {
		sup.GoRestart(fmt.Sprintf("worker.%d", i), rtsup.RestartPolicy{PublishErr: true}, func(c context.Context) error {
			return s.work(c, q)
		})
	}
	s.queue, s.sup = q, sup
	s.log.Info("notifier started", logx.Int("workers", s.cfg.Workers), logx.Any("senders", s.Senders()))
}

// Stop refuses new alerts and waits for the workers to drain the queue. When
// ctx ends first the remaining sends are canceled and left undelivered.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	q, sup := s.queue, s.sup
	if q == nil || s.closing {
		s.mu.Unlock()
		return
	}
	s.closing = true
	s.mu.Unlock()

	s.inflight.Wait()
	close(q)
	if err := sup.Wait(ctx); err != nil && ctx.Err() != nil {
		s.log.Warn("notifier drain cut short",
			logx.Int("pending", len(q)),
			logx.Any("workers", sup.Running()),
		)
		sup.Cancel()
	} else if err != nil {
		s.log.Warn("notifier worker failed", logx.Err(err))
	}

	s.mu.Lock()
	s.queue, s.sup, s.closing = nil, nil, false
	s.mu.Unlock()
}

// Notify enqueues a for delivery. It never waits for the senders.
func (s *Service) Notify(ctx context.Context, a Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	q := s.queue
	if q == nil || s.closing {
		s.mu.Unlock()
		return ErrStopped
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	if a.Sound == "" {
		a.Sound = s.cfg.Sound
	}
	if a.At.IsZero() {
		a.At = time.Now()
	}
	select {
	case q <- a:
		return nil
	default:
		eventbus.Publish(s.bus, eventbus.NotifyDropped, ErrQueueFull, DeliveryEvent{Key: a.Key, Title: a.Title})
		return ErrQueueFull
	}
}

// History returns the most recent deliveries, oldest first.
func (s *Service) History() []HistoryItem { return s.hist.snapshot() }

func (s *Service) work(ctx context.Context, q <-chan Alert) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a, ok := <-q:
			if !ok {
				return nil
			}
			for _, sd := range s.senders {
				s.deliver(ctx, sd, a)
			}
		}
	}
}

// deliver sends a through sd, retrying up to cfg.RetryMax times.
func (s *Service) deliver(ctx context.Context, sd Sender, a Alert) {
	attempts := 1 + s.cfg.RetryMax
	var err error
	n := 0
	for n < attempts {
		if n > 0 && !sleepCtx(ctx, retryDelay(s.cfg, n)) {
			return
		}
		if s.limiter.Wait(ctx) != nil {
			return
		}
		n++

		callCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err = sd.Send(callCtx, a)
		cancel()
		if err == nil {
			s.hist.add(HistoryItem{At: time.Now(), Sender: sd.Name(), Title: a.Title})
			s.log.Debug("alert delivered", logx.String("sender", sd.Name()), logx.String("key", a.Key), logx.Int("attempt", n))
			eventbus.Publish(s.bus, eventbus.NotifySent, nil, DeliveryEvent{Sender: sd.Name(), Key: a.Key, Title: a.Title, Attempts: n})
			return
		}
		s.log.Debug("alert send failed", logx.String("sender", sd.Name()), logx.Int("attempt", n), logx.Err(err))
	}

	err = fmt.Errorf("%w: %s: %v", ErrSend, sd.Name(), err)
	s.log.Warn("alert delivery failed", logx.String("key", a.Key), logx.String("title", a.Title), logx.Err(err))
	eventbus.Publish(s.bus, eventbus.NotifyFailed, err, DeliveryEvent{Sender: sd.Name(), Key: a.Key, Title: a.Title, Attempts: n})
}

// retryDelay is the pause after the given failed attempt (1-based):
// RetryBase doubled per attempt, capped, with 0.7x-1.3x jitter.
func retryDelay(cfg Config, attempt int) time.Duration {
	d := cfg.RetryMaxDelay
	if shift := attempt - 1; shift < 30 {
		if b := cfg.RetryBase << shift; b > 0 && b < d {
			d = b
		}
	}
	d = time.Duration(float64(d) * (0.7 + 0.6*rand.Float64()))
	return min(d, cfg.RetryMaxDelay)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// history is a fixed ring of the last historyCap deliveries.
type history struct {
	mu    sync.Mutex
	items [historyCap]HistoryItem
	next  int
	full  bool
}

func (h *history) add(it HistoryItem) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items[h.next] = it
	h.next = (h.next + 1) % historyCap
	if h.next == 0 {
		h.full = true
	}
}

func (h *history) snapshot() []HistoryItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.full {
		return append([]HistoryItem(nil), h.items[:h.next]...)
	}
	out := make([]HistoryItem, 0, historyCap)
	out = append(out, h.items[h.next:]...)
	return append(out, h.items[:h.next]...)
}

// Package notifier delivers task alerts to the platform.
//
// The engine hands alerts to Service.Notify, which only enqueues. A small
// worker pool drains the queue and calls every configured Sender (desktop
// notification, Telegram, log) with rate limiting and jittered retries. A
// failing sender never blocks other senders or other alerts; failures are
// logged and published on the event bus.
//
// # History
//
// For debugging and operator visibility, the service keeps a small in-memory
// history of recently delivered alerts. It is not persisted.
package notifier

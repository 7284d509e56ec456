//go:build darwin

package desktop

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"schedwatch/internal/notifier"
	logx "schedwatch/pkg/logx"
)

type backend interface {
	notify(ctx context.Context, a notifier.Alert) error
	close() error
}

type osascriptBackend struct {
	bin string
}

func New(log logx.Logger) (*Sender, error) {
	bin, err := exec.LookPath("osascript")
	if err != nil {
		return nil, fmt.Errorf("desktop: %w", err)
	}
	return &Sender{log: log, backend: &osascriptBackend{bin: bin}}, nil
}

func (s *Sender) Send(ctx context.Context, a notifier.Alert) error {
	return s.backend.notify(ctx, a)
}

func (b *osascriptBackend) notify(ctx context.Context, a notifier.Alert) error {
	out, err := exec.CommandContext(ctx, b.bin, "-e", appleScript(a.Title, a.Body, string(a.Sound))).CombinedOutput()
	if err != nil {
		return fmt.Errorf("desktop: osascript: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (b *osascriptBackend) close() error { return nil }

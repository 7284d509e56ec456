//go:build !linux && !darwin

package desktop

import (
	"context"

	"schedwatch/internal/notifier"
	logx "schedwatch/pkg/logx"
)

type backend interface {
	notify(ctx context.Context, a notifier.Alert) error
	close() error
}

func New(log logx.Logger) (*Sender, error) {
	return nil, ErrUnsupported
}

func (s *Sender) Send(ctx context.Context, a notifier.Alert) error {
	return ErrUnsupported
}

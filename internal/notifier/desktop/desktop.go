// Package desktop sends alerts as native desktop notifications.
package desktop

import (
	"errors"
	"strings"

	logx "schedwatch/pkg/logx"
)

const appName = "schedwatch"

// ErrUnsupported is returned by New on platforms without a desktop backend.
var ErrUnsupported = errors.New("desktop notifications not supported on this platform")

// Sender is a notifier.Sender backed by the platform notification service.
type Sender struct {
	log     logx.Logger
	backend backend
}

func (s *Sender) Name() string { return "desktop" }

func (s *Sender) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.close()
}

// escapeAppleScript quotes s for use inside an AppleScript string literal.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func appleScript(title, body, sound string) string {
	var b strings.Builder
	b.WriteString("display notification ")
	b.WriteString(escapeAppleScript(body))
	b.WriteString(" with title ")
	b.WriteString(escapeAppleScript(title))
	if sound != "" {
		b.WriteString(" sound name ")
		b.WriteString(escapeAppleScript(sound))
	}
	return b.String()
}

// Package telegram delivers alerts to a Telegram chat through a bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	tele "gopkg.in/telebot.v4"

	"schedwatch/internal/notifier"
	logx "schedwatch/pkg/logx"
)

const (
	keyringService = "schedwatch"
	keyringUser    = "telegram-token"

	textLimit = 4000
)

var keyringGet = keyring.Get

type Config struct {
	Token            string
	TokenFromKeyring bool
	ChatID           int64
	ThreadID         int
}

type bot interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Sender is a notifier.Sender that posts to one chat (and optional topic).
type Sender struct {
	cfg Config
	log logx.Logger
	bot bot
}

// ResolveToken returns the configured token, or reads it from the OS keyring
// when TokenFromKeyring is set and no literal token is configured.
func ResolveToken(cfg Config) (string, error) {
	if tok := strings.TrimSpace(cfg.Token); tok != "" {
		return tok, nil
	}
	if !cfg.TokenFromKeyring {
		return "", errors.New("telegram token is empty")
	}
	tok, err := keyringGet(keyringService, keyringUser)
	if err != nil {
		return "", fmt.Errorf("telegram token from keyring: %w", err)
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", errors.New("telegram token in keyring is empty")
	}
	return tok, nil
}

// StoreToken saves a bot token in the OS keyring for TokenFromKeyring.
func StoreToken(token string) error {
	return keyring.Set(keyringService, keyringUser, strings.TrimSpace(token))
}

func New(cfg Config, log logx.Logger) (*Sender, error) {
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is required")
	}
	tok, err := ResolveToken(cfg)
	if err != nil {
		return nil, err
	}
	// Offline: skip getMe at construction; the first send reports bad tokens.
	b, err := tele.NewBot(tele.Settings{
		Token:   tok,
		Offline: true,
		Client:  &http.Client{Timeout: 8 * time.Second},
	})
	if err != nil {
		return nil, err
	}
	return &Sender{cfg: cfg, log: log, bot: b}, nil
}

func (s *Sender) Name() string { return "telegram" }

func (s *Sender) Send(ctx context.Context, a notifier.Alert) error {
	chat := &tele.Chat{ID: s.cfg.ChatID}
	opt := &tele.SendOptions{
		DisableWebPagePreview: true,
		ThreadID:              s.cfg.ThreadID,
	}
	for _, chunk := range splitText(formatAlert(a), textLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.bot.Send(chat, chunk, opt); err != nil {
			return err
		}
	}
	return nil
}

func formatAlert(a notifier.Alert) string {
	title := strings.TrimSpace(a.Title)
	body := strings.TrimSpace(a.Body)
	switch {
	case title == "":
		return body
	case body == "":
		return "⏰ " + title
	default:
		return "⏰ " + title + "\n\n" + body
	}
}

// splitText splits long messages into chunks under limit runes,
// preferring newline boundaries.
func splitText(s string, limit int) []string {
	if limit <= 0 {
		limit = textLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}

		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				// Avoid extremely small chunks.
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}

		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))

		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

var _ notifier.Sender = (*Sender)(nil)

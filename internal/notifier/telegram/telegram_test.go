package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"schedwatch/internal/notifier"
	logx "schedwatch/pkg/logx"
)

type fakeBot struct {
	sent []string
	err  error
}

func (f *fakeBot) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, what.(string))
	return &tele.Message{ID: len(f.sent)}, nil
}

func TestResolveTokenPrefersLiteral(t *testing.T) {
	old := keyringGet
	t.Cleanup(func() { keyringGet = old })
	keyringGet = func(string, string) (string, error) {
		t.Fatal("keyring must not be consulted")
		return "", nil
	}
	got, err := ResolveToken(Config{Token: " abc ", TokenFromKeyring: true})
	if err != nil || got != "abc" {
		t.Fatalf("ResolveToken = %q, %v", got, err)
	}
}

func TestResolveTokenFromKeyring(t *testing.T) {
	old := keyringGet
	t.Cleanup(func() { keyringGet = old })
	keyringGet = func(service, user string) (string, error) {
		if service != keyringService || user != keyringUser {
			t.Fatalf("unexpected lookup %s/%s", service, user)
		}
		return "from-keyring\n", nil
	}
	got, err := ResolveToken(Config{TokenFromKeyring: true})
	if err != nil || got != "from-keyring" {
		t.Fatalf("ResolveToken = %q, %v", got, err)
	}

	keyringGet = func(string, string) (string, error) { return "", errors.New("locked") }
	if _, err := ResolveToken(Config{TokenFromKeyring: true}); err == nil {
		t.Fatal("expected keyring error")
	}
	if _, err := ResolveToken(Config{}); err == nil {
		t.Fatal("expected empty token error")
	}
}

func TestNewRequiresChat(t *testing.T) {
	if _, err := New(Config{Token: "x"}, logx.Nop()); err == nil {
		t.Fatal("expected chat_id error")
	}
}

func TestSendFormatsAlert(t *testing.T) {
	fb := &fakeBot{}
	s := &Sender{cfg: Config{ChatID: 42}, bot: fb}
	err := s.Send(context.Background(), notifier.Alert{Title: "Team Meeting", Body: "Weekly sync"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(fb.sent) != 1 || fb.sent[0] != "⏰ Team Meeting\n\nWeekly sync" {
		t.Fatalf("sent = %q", fb.sent)
	}

	fb.err = errors.New("forbidden")
	if err := s.Send(context.Background(), notifier.Alert{Title: "x"}); err == nil {
		t.Fatal("expected send error")
	}
}

func TestSplitText(t *testing.T) {
	t.Parallel()
	if got := splitText("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("splitText short = %q", got)
	}

	line := strings.Repeat("a", 6)
	s := line + "\n" + line + "\n" + line
	got := splitText(s, 10)
	if len(got) != 3 {
		t.Fatalf("chunks = %d (%q)", len(got), got)
	}
	for _, c := range got {
		if c != line {
			t.Fatalf("chunk = %q", c)
		}
	}

	long := strings.Repeat("b", 25)
	got = splitText(long, 10)
	if len(got) != 3 || len([]rune(got[2])) != 5 {
		t.Fatalf("hard split = %q", got)
	}
}

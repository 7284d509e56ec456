package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := cli.NewApp()
	a.Writer = &out
	a.ErrWriter = &out
	a.Commands = []cli.Command{
		{Name: "check", Action: checkAction, Flags: commonFlags},
		{Name: "view", Action: viewAction, Flags: append([]cli.Flag{cli.BoolFlag{Name: "plain"}}, commonFlags...)},
	}
	a.ExitErrHandler = func(*cli.Context, error) {}
	err := a.Run(append([]string{"schedwatch"}, args...))
	return out.String(), err
}

func writeSchedule(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "schedule.json")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCheckOK(t *testing.T) {
	p := writeSchedule(t, `{"days":[{"day_of_week":"Monday","tasks":[
	 {"title":"Team Meeting","details":"","start_time":"09:00:00","end_time":"10:00:00"}]}]}`)
	missingCfg := filepath.Join(t.TempDir(), "none.json")

	out, err := runCLI(t, "check", "--config", missingCfg, "--schedule", p)
	if err != nil {
		t.Fatalf("check: %v (%s)", err, out)
	}
	if !strings.Contains(out, "1 days, 1 tasks") || !strings.HasSuffix(strings.TrimSpace(out), "ok") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestCheckReportsProblems(t *testing.T) {
	p := writeSchedule(t, `{"days":[{"day_of_week":"Someday","tasks":[
	 {"title":"Breakfast","details":"","start_time":"8am","end_time":"09:00:00"}]}]}`)
	out, err := runCLI(t, "check", "--config", filepath.Join(t.TempDir(), "none.json"), "--schedule", p)
	if err == nil {
		t.Fatalf("expected problems, output:\n%s", out)
	}
	if !strings.Contains(out, `unknown day_of_week "Someday"`) || !strings.Contains(out, `"Breakfast"`) {
		t.Fatalf("output:\n%s", out)
	}
}

func TestCheckMalformed(t *testing.T) {
	p := writeSchedule(t, `{"days": [`)
	if _, err := runCLI(t, "check", "--config", filepath.Join(t.TempDir(), "none.json"), "--schedule", p); err == nil {
		t.Fatal("expected load error")
	}
}

func TestCheckRequiresConfigWithoutSchedule(t *testing.T) {
	if _, err := runCLI(t, "check", "--config", filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatal("missing config without --schedule should fail")
	}
}

func TestViewPlain(t *testing.T) {
	p := writeSchedule(t, `{"days":[{"day_of_week":"Monday","tasks":[
	 {"title":"Team Meeting","details":"Weekly sync","start_time":"09:00:00","end_time":"10:00:00"}]}]}`)
	out, err := runCLI(t, "view", "--plain", "--config", filepath.Join(t.TempDir(), "none.json"), "--schedule", p)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !strings.Contains(out, "Meeting") {
		t.Fatalf("output:\n%s", out)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"schedwatch/internal/app"
	"schedwatch/internal/config"
	"schedwatch/internal/notifier/telegram"
	"schedwatch/internal/schedule"
	"schedwatch/internal/viewer"
)

var commonFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Value: config.DefaultPath,
		Usage: "path to config (json or yaml)",
	},
	cli.StringFlag{
		Name:  "schedule, s",
		Usage: "path to the schedule file (overrides schedule.path)",
	},
}

func execute(args []string) error {
	a := cli.App{
		Name:      "schedwatch",
		HelpName:  "schedwatch",
		Usage:     "weekly schedule notifications",
		UsageText: "schedwatch [command] [--config path] [--schedule path]",
		Commands: []cli.Command{
			{
				Name:   "run",
				Usage:  "watch the schedule and send alerts (default)",
				Action: runAction,
				Flags:  commonFlags,
			},
			{
				Name:   "check",
				Usage:  "validate the schedule file and print a summary",
				Action: checkAction,
				Flags:  commonFlags,
			},
			{
				Name:   "view",
				Usage:  "show the schedule in the terminal",
				Action: viewAction,
				Flags: append([]cli.Flag{
					cli.BoolFlag{Name: "plain", Usage: "print once instead of opening the interactive viewer"},
				}, commonFlags...),
			},
			{
				Name:      "set-token",
				Usage:     "store the Telegram bot token in the OS keyring",
				ArgsUsage: "<token>",
				Action:    setTokenAction,
			},
		},
		Action:      runAction,
		Flags:       commonFlags,
		HideVersion: true,
	}
	return a.Run(args)
}

// loadConfig reads --config. A missing file is fine when --schedule is given.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	sched := strings.TrimSpace(ctx.String("schedule"))
	cfg, err := config.Load(ctx.String("config"), sched != "")
	if err != nil {
		return nil, err
	}
	if sched != "" {
		cfg.Schedule.Path = sched
	}
	return cfg, nil
}

func runAction(ctx *cli.Context) error {
	sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sched := strings.TrimSpace(ctx.String("schedule"))
	a, err := app.NewApp(app.Options{
		ConfigPath:         ctx.String("config"),
		AllowMissingConfig: sched != "",
		SchedulePath:       sched,
	})
	if err != nil {
		return err
	}
	if err := a.Start(sigCtx); err != nil {
		return err
	}

	reason := app.StopSignal
	select {
	case <-sigCtx.Done():
	case <-a.Done():
		reason = app.StopFatalError
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)
	if reason == app.StopFatalError {
		return a.Err()
	}
	return nil
}

func checkAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	path := cfg.SchedulePath()
	s, err := schedule.NewLoader(nil).Load(path)
	if err != nil {
		return err
	}

	w := ctx.App.Writer
	fmt.Fprintf(w, "%s: %d days, %d tasks\n", path, len(s.Days), s.TaskCount())
	var problems int
	for di, day := range s.Days {
		if _, ok := schedule.ParseWeekday(day.DayOfWeek); !ok {
			fmt.Fprintf(w, "  day %d: unknown day_of_week %q (never matches)\n", di, day.DayOfWeek)
			problems++
		}
		for ti, t := range day.Tasks {
			if _, _, ok := t.TimeRange(); !ok {
				fmt.Fprintf(w, "  task %s %q: invalid time range %q-%q (never alerts)\n",
					schedule.TaskKey{Day: di, Task: ti}, t.Title, t.StartTime, t.EndTime)
				problems++
			}
		}
	}
	if problems > 0 {
		return cli.NewExitError(fmt.Sprintf("%d problem(s) found", problems), 2)
	}
	fmt.Fprintln(w, "ok")
	return nil
}

func viewAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	s, err := schedule.NewLoader(nil).Load(cfg.SchedulePath())
	if err != nil {
		return err
	}
	if ctx.Bool("plain") {
		md := viewer.Markdown(cfg.Viewer.Title, s, time.Now().Weekday())
		fmt.Fprintln(ctx.App.Writer, viewer.RenderMarkdown(md, 80))
		return nil
	}

	sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return viewer.TUI{}.Open(sigCtx, cfg.Viewer.Title, s)
}

func setTokenAction(ctx *cli.Context) error {
	tok := strings.TrimSpace(ctx.Args().First())
	if tok == "" {
		return errors.New("usage: schedwatch set-token <token>")
	}
	if err := telegram.StoreToken(tok); err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, "token stored; set notifier.telegram.token_from_keyring: true")
	return nil
}

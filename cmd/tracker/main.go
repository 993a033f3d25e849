package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "tracker:", err)
		stop()
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:  "tracker",
		Usage: "collect cryptocurrency market snapshots into spreadsheets and reports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to the YAML config file (default: config/config.yaml if present)",
				Destination: &configPath,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "fetch and store a snapshot every schedule.interval until interrupted",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return withApp(configPath, func(a *app) error { return a.run(ctx) })
				},
			},
			{
				Name:  "once",
				Usage: "fetch and store a single snapshot",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return withApp(configPath, func(a *app) error { return a.once(ctx) })
				},
			},
			{
				Name:  "analyze",
				Usage: "print statistics for the stored spreadsheet",
				Action: func(context.Context, *cli.Command) error {
					return withApp(configPath, func(a *app) error { return a.analyze(os.Stdout) })
				},
			},
			{
				Name:  "report",
				Usage: "render the PDF report from the stored spreadsheet",
				Action: func(context.Context, *cli.Command) error {
					return withApp(configPath, func(a *app) error { return a.report() })
				},
			},
		},
	}
}

package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/letterbox/cmd/app/commands"
	"github.com/allisson/letterbox/internal/app"
	"github.com/allisson/letterbox/internal/clock"
	"github.com/allisson/letterbox/internal/config"
)

func getAccessLogCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "list-access-logs",
			Usage: "List the most recent access attempts",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   50,
					Usage:   "Maximum number of attempts to show",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				accessLogUseCase, err := container.AccessLogUseCase()
				if err != nil {
					return err
				}

				return commands.RunListAccessLogs(
					ctx,
					accessLogUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "access-stats",
			Usage: "Show views and failed attempts per recipient",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "days",
					Aliases: []string{"d"},
					Value:   7,
					Usage:   "Size of the reporting window in days",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				accessLogUseCase, err := container.AccessLogUseCase()
				if err != nil {
					return err
				}

				return commands.RunAccessStats(
					ctx,
					accessLogUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					clock.RealClock{},
					int(cmd.Int("days")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "clean-access-logs",
			Usage: "Delete access logs older than specified days",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "days",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Delete access logs older than this many days",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many logs would be deleted without deleting",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				accessLogUseCase, err := container.AccessLogUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanAccessLogs(
					ctx,
					accessLogUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("days")),
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "verify-access-logs",
			Usage: "Verify the signatures of access logs in a time range",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "start-date",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Start date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format",
				},
				&cli.StringFlag{
					Name:     "end-date",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "End date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				accessLogUseCase, err := container.AccessLogUseCase()
				if err != nil {
					return err
				}

				return commands.RunVerifyAccessLogs(
					ctx,
					accessLogUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("start-date"),
					cmd.String("end-date"),
					cmd.String("format"),
				)
			},
		},
	}
}

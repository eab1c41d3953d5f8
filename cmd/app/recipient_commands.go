package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/letterbox/cmd/app/commands"
	"github.com/allisson/letterbox/internal/app"
	"github.com/allisson/letterbox/internal/config"
)

func getRecipientCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-recipient",
			Usage: "Create a recipient page and print its access key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "slug",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "URL slug (lowercase letters, digits and dashes)",
				},
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Recipient display name",
				},
				&cli.StringFlag{
					Name:  "nickname",
					Usage: "Short name shown on the page",
				},
				&cli.StringFlag{
					Name:  "description",
					Usage: "Public teaser shown before unlocking",
				},
				&cli.StringFlag{
					Name:  "main-photo",
					Usage: "URL of the main photo",
				},
				&cli.StringFlag{
					Name:    "letter-file",
					Aliases: []string{"l"},
					Usage:   "Path to a file with the letter body",
				},
				&cli.StringSliceFlag{
					Name:  "gallery-photo",
					Usage: "URL of a gallery photo (repeatable)",
				},
				&cli.StringFlag{
					Name:  "theme",
					Usage: "Theme configuration as a JSON object",
				},
				&cli.IntFlag{
					Name:  "order-index",
					Value: 0,
					Usage: "Position in listings",
				},
				&cli.BoolFlag{
					Name:    "published",
					Aliases: []string{"p"},
					Value:   false,
					Usage:   "Publish the page immediately",
				},
				&cli.StringFlag{
					Name:    "access-key",
					Aliases: []string{"k"},
					Usage:   "Access key to use (omit to generate one)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				recipientUseCase, err := container.RecipientUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateRecipient(
					ctx,
					recipientUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					commands.RecipientOptions{
						Slug:          cmd.String("slug"),
						Name:          cmd.String("name"),
						Nickname:      cmd.String("nickname"),
						Description:   cmd.String("description"),
						MainPhoto:     cmd.String("main-photo"),
						GalleryPhotos: cmd.StringSlice("gallery-photo"),
						LetterFile:    cmd.String("letter-file"),
						Theme:         cmd.String("theme"),
						OrderIndex:    int(cmd.Int("order-index")),
						Published:     cmd.Bool("published"),
						AccessKey:     cmd.String("access-key"),
					},
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "rotate-access-key",
			Usage: "Replace the access key of a recipient",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "slug",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Recipient slug",
				},
				&cli.StringFlag{
					Name:    "access-key",
					Aliases: []string{"k"},
					Usage:   "New access key (omit to generate one)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				recipientUseCase, err := container.RecipientUseCase()
				if err != nil {
					return err
				}

				return commands.RunRotateAccessKey(
					ctx,
					recipientUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("slug"),
					cmd.String("access-key"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "set-published",
			Usage: "Publish or unpublish a recipient page",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "slug",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Recipient slug",
				},
				&cli.BoolFlag{
					Name:     "published",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "true to publish, false to unpublish",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				recipientUseCase, err := container.RecipientUseCase()
				if err != nil {
					return err
				}

				return commands.RunSetPublished(
					ctx,
					recipientUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("slug"),
					cmd.Bool("published"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "update-recipient",
			Usage: "Change the page content of a recipient",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "slug",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Recipient slug",
				},
				&cli.StringFlag{
					Name:    "name",
					Aliases: []string{"n"},
					Usage:   "Recipient display name",
				},
				&cli.StringFlag{
					Name:  "nickname",
					Usage: "Short name shown on the page",
				},
				&cli.StringFlag{
					Name:  "description",
					Usage: "Public teaser shown before unlocking",
				},
				&cli.StringFlag{
					Name:  "main-photo",
					Usage: "URL of the main photo",
				},
				&cli.StringSliceFlag{
					Name:  "gallery-photo",
					Usage: "URL of a gallery photo (repeatable, replaces the gallery)",
				},
				&cli.StringFlag{
					Name:    "letter-file",
					Aliases: []string{"l"},
					Usage:   "Path to a file with the new letter body",
				},
				&cli.StringFlag{
					Name:  "theme",
					Usage: "Theme configuration as a JSON object",
				},
				&cli.IntFlag{
					Name:  "order-index",
					Usage: "Position in listings",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				opts := commands.UpdateRecipientOptions{
					LetterFile: cmd.String("letter-file"),
					Theme:      cmd.String("theme"),
				}
				if cmd.IsSet("name") {
					opts.Name = stringPtr(cmd.String("name"))
				}
				if cmd.IsSet("nickname") {
					opts.Nickname = stringPtr(cmd.String("nickname"))
				}
				if cmd.IsSet("description") {
					opts.Description = stringPtr(cmd.String("description"))
				}
				if cmd.IsSet("main-photo") {
					opts.MainPhoto = stringPtr(cmd.String("main-photo"))
				}
				if cmd.IsSet("gallery-photo") {
					opts.GalleryPhotos = cmd.StringSlice("gallery-photo")
				}
				if cmd.IsSet("order-index") {
					orderIndex := int(cmd.Int("order-index"))
					opts.OrderIndex = &orderIndex
				}

				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				recipientUseCase, err := container.RecipientUseCase()
				if err != nil {
					return err
				}

				return commands.RunUpdateRecipient(
					ctx,
					recipientUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("slug"),
					opts,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "reorder-recipients",
			Usage: "Set the listing order of recipients",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:     "slugs",
					Required: true,
					Usage:    "Recipient slugs in the desired order",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				recipientUseCase, err := container.RecipientUseCase()
				if err != nil {
					return err
				}

				return commands.RunReorderRecipients(
					ctx,
					recipientUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.StringSlice("slugs"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "delete-recipient",
			Usage: "Delete a recipient page",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "slug",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Recipient slug",
				},
				&cli.BoolFlag{
					Name:  "purge-access-logs",
					Value: false,
					Usage: "Also delete the recipient's access attempts",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				recipientUseCase, err := container.RecipientUseCase()
				if err != nil {
					return err
				}

				return commands.RunDeleteRecipient(
					ctx,
					recipientUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("slug"),
					cmd.Bool("purge-access-logs"),
					cmd.String("format"),
				)
			},
		},
	}
}

func stringPtr(value string) *string {
	return &value
}

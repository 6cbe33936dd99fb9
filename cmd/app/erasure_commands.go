package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/treatment-register/cmd/app/commands"
	"github.com/allisson/treatment-register/internal/app"
	"github.com/allisson/treatment-register/internal/config"
)

func erasureIDFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "id",
			Aliases:  []string{"i"},
			Required: true,
			Usage:    "ID of the user to erase",
		},
		&cli.StringFlag{
			Name:     "actor-id",
			Aliases:  []string{"a"},
			Required: true,
			Usage:    "ID of the administrator performing the erasure",
		},
	}
}

func getErasureCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "preview-erasure",
			Usage: "Show what erasing a user would affect without changing anything",
			Flags: append(erasureIDFlags(), formatFlag()),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				erasureUseCase, err := container.ErasureUseCase()
				if err != nil {
					return err
				}

				return commands.RunPreviewErasure(
					ctx,
					erasureUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("actor-id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "erase-user",
			Usage: "Permanently erase a user and write a deletion audit record",
			Flags: append(erasureIDFlags(),
				&cli.StringFlag{
					Name:    "reason",
					Aliases: []string{"r"},
					Usage:   "Reason recorded in the deletion audit log",
				},
				formatFlag(),
			),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				erasureUseCase, err := container.ErasureUseCase()
				if err != nil {
					return err
				}

				return commands.RunEraseUser(
					ctx,
					erasureUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("actor-id"),
					cmd.String("reason"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "purge-deletion-audits",
			Usage: "Delete deletion audit records past their retention deadline",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many records would be deleted without deleting",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				purgeUseCase, err := container.RetentionPurgeUseCase()
				if err != nil {
					return err
				}

				return commands.RunPurgeDeletionAudits(
					ctx,
					purgeUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "verify-deletion-audits",
			Usage: "Verify the signatures of deletion audit records",
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

				auditUseCase, err := container.DeletionAuditUseCase()
				if err != nil {
					return err
				}

				return commands.RunVerifyDeletionAudits(
					ctx,
					auditUseCase,
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

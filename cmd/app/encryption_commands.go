package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/treatment-register/cmd/app/commands"
	"github.com/allisson/treatment-register/internal/app"
	"github.com/allisson/treatment-register/internal/config"
)

func getEncryptionCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "generate-encryption-key",
			Usage: "Generate a new field encryption key, optionally sealed by a KMS",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "kms-provider",
					Usage: "KMS provider (localsecrets, gcpkms, awskms, azurekeyvault, hashivault)",
				},
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Usage: "KMS key URI used to seal the encryption key",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunGenerateEncryptionKey(
					ctx,
					container.KMSService(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("kms-provider"),
					cmd.String("kms-key-uri"),
				)
			},
		},
		{
			Name:  "test-encryption",
			Usage: "Check the configured field encryption key with a self-test and a sample round trip",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "sample",
					Aliases: []string{"s"},
					Usage:   "Value to encrypt and decrypt",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				cipher, err := container.FieldCipher()
				if err != nil {
					return err
				}

				sensitiveFields, err := container.SensitiveFields()
				if err != nil {
					return err
				}

				return commands.RunTestEncryption(
					ctx,
					cipher,
					container.Logger(),
					commands.DefaultIO().Writer,
					sensitiveFields,
					cmd.String("sample"),
					cmd.String("format"),
				)
			},
		},
	}
}

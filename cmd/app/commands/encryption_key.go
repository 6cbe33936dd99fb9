package commands

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cryptoService "github.com/allisson/treatment-register/internal/crypto/service"
)

// RunGenerateEncryptionKey generates a new field encryption key and prints it as environment
// variables. Without KMS parameters it prints the raw key as ENCRYPTION_KEY. With both
// kmsProvider and kmsKeyURI set, the key is sealed by the KMS and printed as
// ENCRYPTION_KEY_CIPHERTEXT together with the KMS settings needed to unseal it.
//
// For local development, use kmsProvider="localsecrets" with kmsKeyURI="base64key://...".
func RunGenerateEncryptionKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	kmsProvider, kmsKeyURI string,
) error {
	if (kmsProvider == "") != (kmsKeyURI == "") {
		return errors.New("--kms-provider and --kms-key-uri must be used together")
	}

	key, err := cryptoService.GenerateEncryptionKey()
	if err != nil {
		return err
	}

	if kmsProvider == "" {
		logger.Warn("printing plaintext encryption key, prefer KMS mode in production")
		_, _ = fmt.Fprintln(writer, "# Field Encryption Key Configuration")
		_, _ = fmt.Fprintln(writer, "# Copy this environment variable to your .env file or secrets manager")
		_, _ = fmt.Fprintln(writer)
		_, _ = fmt.Fprintf(writer, "ENCRYPTION_KEY=\"%s\"\n", key)
		return nil
	}

	keeperInterface, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := keeperInterface.Close(); closeErr != nil {
			logger.Error("failed to close KMS keeper", slog.Any("error", closeErr))
		}
	}()

	// Encrypt is not part of KMSKeeper since the application only ever unseals.
	keeper, ok := keeperInterface.(interface {
		Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	})
	if !ok {
		return errors.New("KMS keeper does not support encryption")
	}

	ciphertext, err := keeper.Encrypt(ctx, []byte(key))
	if err != nil {
		return fmt.Errorf("failed to encrypt encryption key with KMS: %w", err)
	}

	logger.Info("encryption key sealed with KMS", slog.String("kms_provider", kmsProvider))

	_, _ = fmt.Fprintln(writer, "# Field Encryption Key Configuration (KMS Mode)")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "KMS_PROVIDER=\"%s\"\n", kmsProvider)
	_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	_, _ = fmt.Fprintf(
		writer,
		"ENCRYPTION_KEY_CIPHERTEXT=\"%s\"\n",
		base64.StdEncoding.EncodeToString(ciphertext),
	)
	return nil
}

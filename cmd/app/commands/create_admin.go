package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	userDomain "github.com/allisson/treatment-register/internal/user/domain"
	userUseCase "github.com/allisson/treatment-register/internal/user/usecase"
)

// RunCreateAdmin registers an administrator account. It is the bootstrap path for a new
// deployment, since every user management endpoint requires an administrator.
func RunCreateAdmin(
	ctx context.Context,
	users userUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	email, password, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	user, err := users.Register(ctx, userUseCase.RegisterInput{
		Email:    email,
		Password: password,
		Roles:    []userDomain.Role{userDomain.RoleAdmin},
	})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	logger.Info("admin created", slog.String("user_id", user.ID.String()))

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"id":         user.ID,
			"email":      user.Email,
			"roles":      user.Roles,
			"created_at": user.CreatedAt,
		})
	}

	_, _ = fmt.Fprintf(writer, "Admin created\n\n")
	_, _ = fmt.Fprintf(writer, "ID:    %s\n", user.ID)
	_, _ = fmt.Fprintf(writer, "Email: %s\n", user.Email)
	return nil
}

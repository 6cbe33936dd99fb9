// Package http provides HTTP handlers for user erasure and the deletion audit log.
package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/allisson/treatment-register/internal/auth/http"
	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
	"github.com/allisson/treatment-register/internal/erasure/http/dto"
	erasureUseCase "github.com/allisson/treatment-register/internal/erasure/usecase"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	"github.com/allisson/treatment-register/internal/httputil"
)

// ErasureHandler handles user erasure requests.
type ErasureHandler struct {
	erasureUseCase erasureUseCase.ErasureUseCase
	logger         *slog.Logger
}

// NewErasureHandler creates a new erasure handler.
func NewErasureHandler(erasureUseCase erasureUseCase.ErasureUseCase, logger *slog.Logger) *ErasureHandler {
	return &ErasureHandler{erasureUseCase: erasureUseCase, logger: logger}
}

// EraseHandler erases a user and returns what was anonymized and deleted.
// DELETE /v1/users/:id - Administrators only. The JSON body is optional.
func (h *ErasureHandler) EraseHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	subjectID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.EraseUserRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	result, err := h.erasureUseCase.Erase(c.Request.Context(), erasureUseCase.EraseInput{
		SubjectID:       subjectID,
		ActorID:         principal.UserID,
		Reason:          req.Reason,
		SourceIPAddress: c.ClientIP(),
	})
	if err != nil {
		h.handleEraseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleEraseError reports blocked erasures with their reason and hides the cause of
// failed transactions.
func (h *ErasureHandler) handleEraseError(c *gin.Context, err error) {
	for _, blocked := range []struct {
		err    error
		reason string
	}{
		{erasureDomain.ErrSelfErasureDenied, erasureDomain.ReasonSelfErasure},
		{erasureDomain.ErrLastAdminDenied, erasureDomain.ReasonLastAdmin},
	} {
		if errors.Is(err, blocked.err) {
			h.logger.WarnContext(c.Request.Context(), "erasure blocked", slog.String("reason", blocked.reason))
			c.JSON(http.StatusForbidden, httputil.ErrorResponse{Error: "erasure_blocked", Message: blocked.reason})
			return
		}
	}

	if errors.Is(err, apperrors.ErrNotFound) {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if errors.Is(err, erasureDomain.ErrErasureFailed) {
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			slog.Int("status_code", http.StatusInternalServerError),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, httputil.ErrorResponse{
			Error:   "erasure_failed",
			Message: "The erasure was rolled back and no data was changed",
		})
		return
	}

	httputil.HandleErrorGin(c, err, h.logger)
}

// PreviewHandler returns what erasing the user would affect.
// GET /v1/users/:id/erasure-preview - Administrators only.
func (h *ErasureHandler) PreviewHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	subjectID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	preview, err := h.erasureUseCase.Preview(c.Request.Context(), subjectID, principal.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// Package http provides HTTP handlers for the notification inbox of the authenticated user.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/allisson/treatment-register/internal/auth/http"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	"github.com/allisson/treatment-register/internal/httputil"
	"github.com/allisson/treatment-register/internal/notification/http/dto"
	notificationUseCase "github.com/allisson/treatment-register/internal/notification/usecase"
)

// NotificationHandler handles HTTP requests for notifications.
type NotificationHandler struct {
	notificationUseCase notificationUseCase.UseCase
	logger              *slog.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(
	notificationUseCase notificationUseCase.UseCase,
	logger *slog.Logger,
) *NotificationHandler {
	return &NotificationHandler{notificationUseCase: notificationUseCase, logger: logger}
}

// ListHandler returns the notifications of the authenticated user, newest first.
// GET /v1/notifications?unread=true&offset=0&limit=50
func (h *NotificationHandler) ListHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	unreadOnly, err := strconv.ParseBool(c.DefaultQuery("unread", "false"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, errors.New("invalid unread parameter: must be a boolean"), h.logger)
		return
	}

	notifications, err := h.notificationUseCase.ListByUser(
		c.Request.Context(),
		principal.UserID,
		unreadOnly,
		offset,
		limit,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapNotificationsToListResponse(notifications))
}

// MarkReadHandler marks one of the authenticated user's notifications as read.
// POST /v1/notifications/:id/read
func (h *NotificationHandler) MarkReadHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	id, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.notificationUseCase.MarkRead(c.Request.Context(), id, principal.UserID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

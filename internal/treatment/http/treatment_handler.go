// Package http provides HTTP handlers for the treatment register.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/allisson/treatment-register/internal/auth/domain"
	authHTTP "github.com/allisson/treatment-register/internal/auth/http"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	"github.com/allisson/treatment-register/internal/httputil"
	"github.com/allisson/treatment-register/internal/treatment/domain"
	"github.com/allisson/treatment-register/internal/treatment/http/dto"
	treatmentUseCase "github.com/allisson/treatment-register/internal/treatment/usecase"
)

// TreatmentHandler handles HTTP requests for treatment operations.
type TreatmentHandler struct {
	treatmentUseCase treatmentUseCase.UseCase
	logger           *slog.Logger
}

// NewTreatmentHandler creates a new treatment handler with required dependencies.
func NewTreatmentHandler(treatmentUseCase treatmentUseCase.UseCase, logger *slog.Logger) *TreatmentHandler {
	return &TreatmentHandler{treatmentUseCase: treatmentUseCase, logger: logger}
}

// principalAndID extracts the authenticated principal and the :id path parameter.
// It writes the error response and returns false when either is missing.
func (h *TreatmentHandler) principalAndID(c *gin.Context) (*authDomain.Principal, uuid.UUID, bool) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return nil, uuid.Nil, false
	}
	id, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return nil, uuid.Nil, false
	}
	return principal, id, true
}

// CreateHandler creates a draft treatment owned by the caller.
// POST /v1/treatments
func (h *TreatmentHandler) CreateHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.TreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	treatment, err := h.treatmentUseCase.Create(c.Request.Context(), principal, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapTreatmentToResponse(treatment))
}

// GetHandler returns a treatment visible to the caller.
// GET /v1/treatments/:id
func (h *TreatmentHandler) GetHandler(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	treatment, err := h.treatmentUseCase.Get(c.Request.Context(), principal, id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTreatmentToResponse(treatment))
}

// ListHandler lists treatments with pagination and an optional status filter.
// GET /v1/treatments?status=in_review&offset=0&limit=50
func (h *TreatmentHandler) ListHandler(c *gin.Context) {
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

	var status *domain.Status
	if raw := c.Query("status"); raw != "" {
		s := domain.Status(raw)
		status = &s
	}

	treatments, err := h.treatmentUseCase.List(c.Request.Context(), principal, status, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTreatmentsToListResponse(treatments))
}

// UpdateHandler replaces the editable fields of a treatment.
// PUT /v1/treatments/:id
func (h *TreatmentHandler) UpdateHandler(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req dto.TreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	treatment, err := h.treatmentUseCase.Update(c.Request.Context(), principal, id, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTreatmentToResponse(treatment))
}

// DeleteHandler deletes a draft treatment.
// DELETE /v1/treatments/:id - Administrators only.
func (h *TreatmentHandler) DeleteHandler(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	if err := h.treatmentUseCase.Delete(c.Request.Context(), principal, id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

type transitionFunc func(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
) (*domain.Treatment, error)

func (h *TreatmentHandler) transition(c *gin.Context, fn transitionFunc) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	treatment, err := fn(c.Request.Context(), principal, id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTreatmentToResponse(treatment))
}

// SubmitHandler sends a treatment for review.
// POST /v1/treatments/:id/submit
func (h *TreatmentHandler) SubmitHandler(c *gin.Context) {
	h.transition(c, h.treatmentUseCase.Submit)
}

// ValidateHandler approves a treatment under review.
// POST /v1/treatments/:id/validate - DPO only.
func (h *TreatmentHandler) ValidateHandler(c *gin.Context) {
	h.transition(c, h.treatmentUseCase.Validate)
}

// ArchiveHandler archives a validated treatment.
// POST /v1/treatments/:id/archive - Administrators only.
func (h *TreatmentHandler) ArchiveHandler(c *gin.Context) {
	h.transition(c, h.treatmentUseCase.Archive)
}

// RequestChangesHandler sends a treatment back to its owner with a comment.
// POST /v1/treatments/:id/request-changes - DPO only.
func (h *TreatmentHandler) RequestChangesHandler(c *gin.Context) {
	var req dto.RequestChangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	h.transition(c, func(ctx context.Context, principal *authDomain.Principal, id uuid.UUID) (*domain.Treatment, error) {
		return h.treatmentUseCase.RequestChanges(ctx, principal, id, req.Comment)
	})
}

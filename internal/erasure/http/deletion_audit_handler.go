package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/erasure/http/dto"
	erasureUseCase "github.com/allisson/treatment-register/internal/erasure/usecase"
	"github.com/allisson/treatment-register/internal/httputil"
)

// DeletionAuditHandler exposes the deletion audit log to administrators.
type DeletionAuditHandler struct {
	auditUseCase erasureUseCase.DeletionAuditUseCase
	logger       *slog.Logger
}

// NewDeletionAuditHandler creates a new deletion audit handler.
func NewDeletionAuditHandler(
	auditUseCase erasureUseCase.DeletionAuditUseCase,
	logger *slog.Logger,
) *DeletionAuditHandler {
	return &DeletionAuditHandler{auditUseCase: auditUseCase, logger: logger}
}

// ListHandler lists deletion audit records newest first.
// GET /v1/deletion-audits?from=&to=&performed_by=&offset=0&limit=50 - Administrators only.
// performed_by cannot be combined with from/to.
func (h *DeletionAuditHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	from, to, err := httputil.ParseTimeRange(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	ctx := c.Request.Context()
	if raw := c.Query("performed_by"); raw != "" {
		performedBy, err := uuid.Parse(raw)
		if err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
		audits, err := h.auditUseCase.ListByPerformer(ctx, performedBy, offset, limit)
		if err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
		c.JSON(http.StatusOK, dto.MapDeletionAuditsToListResponse(audits))
		return
	}

	audits, err := h.auditUseCase.List(ctx, offset, limit, from, to)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapDeletionAuditsToListResponse(audits))
}

// GetHandler returns one deletion audit record.
// GET /v1/deletion-audits/:id - Administrators only.
func (h *DeletionAuditHandler) GetHandler(c *gin.Context) {
	id, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	audit, err := h.auditUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapDeletionAuditToResponse(audit))
}

// StatisticsHandler aggregates deletion audit records over an optional range.
// GET /v1/deletion-audits/statistics?from=&to= - Administrators only.
func (h *DeletionAuditHandler) StatisticsHandler(c *gin.Context) {
	from, to, err := httputil.ParseTimeRange(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	stats, err := h.auditUseCase.Statistics(c.Request.Context(), from, to)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, stats)
}

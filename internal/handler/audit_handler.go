package handler

import (
	"net/http"

	"shoptrack/internal/middleware"
	"shoptrack/internal/service"
	"shoptrack/pkg/pagination"
	"shoptrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audits := router.Group("/api/audit-logs", middleware.RequireAuth())
	{
		audits.GET("", h.ListLogs)
	}
}

// @Summary      List audit logs
// @Tags         Audit
// @Produce      json
// @Param        page  query int false "Page"
// @Param        limit query int false "Page size"
// @Success      200 {object} response.Response
// @Security     BearerAuth
// @Router       /api/audit-logs [get]
func (h *AuditHandler) ListLogs(c *gin.Context) {
	params := pagination.Parse(c)
	logs, total, err := h.auditService.ListLogs(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"logs":  logs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

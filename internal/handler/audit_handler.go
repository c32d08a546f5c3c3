package handler

import (
	"net/http"

	"fleet/internal/middleware"
	"fleet/internal/model"
	"fleet/internal/service"
	"fleet/pkg/pagination"
	"fleet/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

// NewAuditHandler sets up the routing dependencies for audit endpoints
func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit-logs",
		middleware.Authenticate(),
		middleware.RequireRole(model.RoleSuperVendor),
		h.GetAuditLogs)
}

// GetAuditLogs handles GET /audit-logs, newest first.
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), p.Offset, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

package handler

import (
	"net/http"

	"fleet/internal/middleware"
	"fleet/internal/model"
	"fleet/internal/service"
	"fleet/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

// NewDashboardHandler sets up the routing dependencies for dashboard endpoints
func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/region/dashboard",
		middleware.Authenticate(),
		middleware.RequireRole(model.RoleRegionalVendor),
		h.RegionDashboard)
	router.GET("/stats/super", middleware.Authenticate(), h.SuperStats)
}

// RegionDashboard handles GET /region/dashboard with the regional vendor's
// aggregates and their freshly resolved permissions.
func (h *DashboardHandler) RegionDashboard(c *gin.Context) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	dash, err := h.dashboardService.RegionDashboard(c.Request.Context(), ident)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dash))
}

// SuperStats handles GET /stats/super.
func (h *DashboardHandler) SuperStats(c *gin.Context) {
	stats, err := h.dashboardService.SuperStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

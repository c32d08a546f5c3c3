package handler

import (
	"net/http"

	"fleet/internal/middleware"
	"fleet/internal/model"
	"fleet/internal/service"
	"fleet/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the super vendor's cross-region operations: the
// driver overview and assignment without the regional capability gates.
type AdminHandler struct {
	vehicleService   service.VehicleService
	dashboardService service.DashboardService
}

// NewAdminHandler sets up the routing dependencies for admin endpoints
func NewAdminHandler(vehicleService service.VehicleService, dashboardService service.DashboardService) *AdminHandler {
	return &AdminHandler{vehicleService: vehicleService, dashboardService: dashboardService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin", middleware.Authenticate(), middleware.RequireRole(model.RoleSuperVendor))
	{
		admin.GET("/driver-overview", h.DriverOverview)
		admin.POST("/vehicles/:id/assign", h.AssignDriver)
		admin.PATCH("/vehicles/:id/unassign", h.UnassignDriver)
	}
}

// DriverOverview handles GET /admin/driver-overview, merging every driver
// with their license, assigned vehicles and the available vehicles of
// their region.
func (h *AdminHandler) DriverOverview(c *gin.Context) {
	rows, err := h.dashboardService.DriverOverview(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// AssignDriver handles POST /admin/vehicles/:id/assign. Same state machine
// as the regional route, without the region confinement.
func (h *AdminHandler) AssignDriver(c *gin.Context) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	var req service.AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	vehicle, err := h.vehicleService.AssignDriver(c.Request.Context(), ident, c.Param("id"), req.DriverID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicle))
}

// UnassignDriver handles PATCH /admin/vehicles/:id/unassign.
func (h *AdminHandler) UnassignDriver(c *gin.Context) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	if err := h.vehicleService.UnassignDriver(c.Request.Context(), ident, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Vehicle unassigned successfully"))
}

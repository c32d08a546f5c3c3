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

type UserHandler struct {
	userService service.UserService
}

// NewUserHandler sets up the routing dependencies for user admin endpoints
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users", middleware.Authenticate())
	{
		users.GET("", middleware.RequireRole(model.RoleSuperVendor), h.ListUsers)
		users.PATCH("/:id/permissions", middleware.RequireRole(model.RoleSuperVendor), h.UpdatePermissions)
		users.PATCH("/:id/role", middleware.RequireRole(model.RoleSuperVendor), h.UpdateRole)
		users.GET("/drivers/region",
			middleware.RequireRole(model.RoleRegionalVendor),
			middleware.RequirePermission("View Drivers"),
			h.ListRegionDrivers)
	}
}

// ListUsers handles GET /users and extracts pagination controls
// @Summary      List users
// @Description  Retrieves a paginated list of accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)

	users, total, err := h.userService.ListUsers(c.Request.Context(), p.Offset, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// UpdatePermissions handles PATCH /users/:id/permissions
// @Summary      Set a user's custom permissions
// @Description  Overwrites the target user's customPermissions set wholesale
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "User ID"
// @Param        payload  body      service.UpdatePermissionsRequest  true  "Permissions Payload"
// @Success      200      {object}  response.Response{data=service.UserSummary}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /users/{id}/permissions [patch]
func (h *UserHandler) UpdatePermissions(c *gin.Context) {
	var req service.UpdatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	user, err := h.userService.UpdatePermissions(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// UpdateRole handles PATCH /users/:id/role
// @Summary      Change a user's role
// @Description  Moves the target to one of the non-super vendor tiers or driver
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "User ID"
// @Param        payload  body      service.UpdateRoleRequest  true  "Role Payload"
// @Success      200      {object}  response.Response{data=service.UserSummary}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /users/{id}/role [patch]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), ident, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// ListRegionDrivers handles GET /users/drivers/region, the regional
// vendor's roster of drivers in their own region.
func (h *UserHandler) ListRegionDrivers(c *gin.Context) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	drivers, err := h.userService.ListDriversInRegion(c.Request.Context(), ident.Region)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, drivers))
}

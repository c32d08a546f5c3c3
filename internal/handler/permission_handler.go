package handler

import (
	"net/http"

	"fleet/internal/middleware"
	"fleet/internal/model"
	"fleet/internal/service"
	"fleet/pkg/response"

	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	permissionService service.PermissionService
}

// NewPermissionHandler sets up the routing dependencies for permission endpoints
func NewPermissionHandler(permissionService service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *PermissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	perms := router.Group("/permissions", middleware.Authenticate())
	{
		perms.GET("", h.List)
		perms.POST("", middleware.RequireRole(model.RoleSuperVendor), h.Create)
		perms.DELETE("/:name", middleware.RequireRole(model.RoleSuperVendor), h.Delete)
		perms.GET("/role/:role", h.ListForRole)
		perms.POST("/role/:role", middleware.RequireRole(model.RoleSuperVendor), h.GrantToRole)
	}
}

// List returns the global permission catalog.
func (h *PermissionHandler) List(c *gin.Context) {
	perms, err := h.permissionService.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// Create adds a new catalog entry.
func (h *PermissionHandler) Create(c *gin.Context) {
	var req service.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	perm, err := h.permissionService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, perm))
}

// Delete removes a catalog entry by name, refusing while any user's
// customPermissions still references it.
func (h *PermissionHandler) Delete(c *gin.Context) {
	if err := h.permissionService.Delete(c.Request.Context(), c.Param("name")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Permission deleted successfully"))
}

// ListForRole returns the catalog annotated with a role's default grants.
func (h *PermissionHandler) ListForRole(c *gin.Context) {
	views, err := h.permissionService.ListForRole(c.Request.Context(), c.Param("role"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, views))
}

// GrantToRole upserts a role's default grant for a permission.
func (h *PermissionHandler) GrantToRole(c *gin.Context) {
	var req service.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	grant, err := h.permissionService.GrantToRole(c.Request.Context(), c.Param("role"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, grant))
}

package handler

import (
	"net/http"

	"fleet/internal/middleware"
	"fleet/internal/model"
	"fleet/internal/service"
	"fleet/internal/storage"
	"fleet/pkg/response"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	documentService service.DocumentService
	store           storage.Store
}

// NewDocumentHandler sets up the routing dependencies for driver document endpoints
func NewDocumentHandler(documentService service.DocumentService, store storage.Store) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, store: store}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	docs := router.Group("/driver-docs", middleware.Authenticate())
	{
		docs.GET("", h.Get)
		docs.POST("", h.Upload)
		docs.GET("/region",
			middleware.RequireRole(model.RoleRegionalVendor),
			middleware.RequirePermission("View Drivers"),
			h.RegionRoster)
	}
}

// Get handles GET /driver-docs, the caller's own license record.
// @Summary      Get own license
// @Description  Returns the caller's driver document, 404 when none uploaded
// @Tags         driver-docs
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.DriverDocument}
// @Failure      404  {object}  response.Response
// @Router       /driver-docs [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	doc, err := h.documentService.Get(c.Request.Context(), ident.UserID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Upload handles POST /driver-docs, replacing any previous license.
// @Summary      Upload license
// @Description  Stores the license file and replaces the caller's document record wholesale
// @Tags         driver-docs
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        license  formData  file  true  "License file (image or PDF, max 5MB)"
// @Success      201      {object}  response.Response{data=model.DriverDocument}
// @Failure      400      {object}  response.Response
// @Router       /driver-docs [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	file, err := c.FormFile("license")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing file: license"))
		return
	}

	path, err := h.store.Save(c, ident.UserID.String(), file)
	if err != nil {
		fail(c, err)
		return
	}

	doc, err := h.documentService.Replace(c.Request.Context(), ident, path)
	if err != nil {
		h.store.Remove(path)
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// RegionRoster handles GET /driver-docs/region, the regional vendor's view
// of drivers with their license metadata.
func (h *DocumentHandler) RegionRoster(c *gin.Context) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	roster, err := h.documentService.RegionRoster(c.Request.Context(), ident.Region)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, roster))
}

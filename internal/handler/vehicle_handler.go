package handler

import (
	"net/http"
	"strconv"

	"fleet/internal/middleware"
	"fleet/internal/model"
	"fleet/internal/service"
	"fleet/internal/storage"
	"fleet/pkg/response"

	"github.com/gin-gonic/gin"
)

type VehicleHandler struct {
	vehicleService service.VehicleService
	store          storage.Store
}

// NewVehicleHandler sets up the routing dependencies for vehicle endpoints
func NewVehicleHandler(vehicleService service.VehicleService, store storage.Store) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService, store: store}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *VehicleHandler) RegisterRoutes(router *gin.RouterGroup) {
	vehicles := router.Group("/vehicles", middleware.Authenticate())
	{
		vehicles.POST("",
			middleware.RequireRole(model.RoleRegionalVendor),
			middleware.RequirePermission("Add Vehicles"),
			h.Create)
		vehicles.GET("",
			middleware.RequireRole(model.RoleRegionalVendor),
			middleware.RequirePermission("View Vehicles"),
			h.List)
		vehicles.GET("/all", middleware.RequireRole(model.RoleSuperVendor), h.ListAll)
		vehicles.GET("/my-assigned", middleware.RequireRole(model.RoleDriver), h.MyAssigned)
		vehicles.PATCH("/:id/assign-driver",
			middleware.RequireRole(model.RoleRegionalVendor),
			middleware.RequirePermission("Assign Vehicles"),
			h.AssignDriver)
		vehicles.PATCH("/:id/unassign-driver",
			middleware.RequireRole(model.RoleRegionalVendor),
			middleware.RequirePermission("Assign Vehicles"),
			h.UnassignDriver)
		vehicles.DELETE("/:id", middleware.RequireRole(model.RoleRegionalVendor), h.Delete)
	}
}

// saveUpload validates and stores one required multipart file.
func (h *VehicleHandler) saveUpload(c *gin.Context, ownerID, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", err
	}
	return h.store.Save(c, ownerID, file)
}

// Create handles POST /vehicles
// @Summary      Register a vehicle
// @Description  Registers a vehicle from a multipart form with the three mandatory documents (RC, permit, pollution)
// @Tags         vehicles
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        registrationNumber  formData  string  true  "Registration number"
// @Param        model               formData  string  true  "Vehicle model"
// @Param        seatingCapacity     formData  int     true  "Seating capacity"
// @Param        fuelType            formData  string  true  "petrol, diesel, electric or hybrid"
// @Param        region              formData  string  true  "Region"
// @Param        rcFile              formData  file    true  "Registration certificate"
// @Param        permitFile          formData  file    true  "Permit document"
// @Param        pollutionFile       formData  file    true  "Pollution certificate"
// @Success      201  {object}  response.Response{data=model.Vehicle}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /vehicles [post]
func (h *VehicleHandler) Create(c *gin.Context) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	registration := c.PostForm("registrationNumber")
	vehicleModel := c.PostForm("model")
	fuelType := c.PostForm("fuelType")
	region := c.PostForm("region")
	seating, err := strconv.Atoi(c.PostForm("seatingCapacity"))
	if registration == "" || vehicleModel == "" || fuelType == "" || err != nil || seating < 1 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	// All three documents are mandatory up front.
	for _, field := range []string{"rcFile", "permitFile", "pollutionFile"} {
		file, err := c.FormFile(field)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing file: "+field))
			return
		}
		if err := storage.ValidateUpload(file); err != nil {
			fail(c, err)
			return
		}
	}

	owner := ident.UserID.String()
	var stored []string
	cleanup := func() {
		for _, p := range stored {
			h.store.Remove(p)
		}
	}

	paths := make(map[string]string, 3)
	for _, field := range []string{"rcFile", "permitFile", "pollutionFile"} {
		path, err := h.saveUpload(c, owner, field)
		if err != nil {
			cleanup()
			fail(c, err)
			return
		}
		stored = append(stored, path)
		paths[field] = path
	}

	vehicle, err := h.vehicleService.Create(c.Request.Context(), ident, service.CreateVehicleRequest{
		RegistrationNumber: registration,
		Model:              vehicleModel,
		SeatingCapacity:    seating,
		FuelType:           fuelType,
		Region:             region,
		RCFile:             paths["rcFile"],
		PermitFile:         paths["permitFile"],
		PollutionFile:      paths["pollutionFile"],
	})
	if err != nil {
		cleanup()
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vehicle))
}

// List handles GET /vehicles, scoped to the caller's visibility.
// @Summary      List vehicles
// @Description  Lists vehicles in the caller's region plus their own registrations
// @Tags         vehicles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Vehicle}
// @Failure      403  {object}  response.Response
// @Router       /vehicles [get]
func (h *VehicleHandler) List(c *gin.Context) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	vehicles, err := h.vehicleService.List(c.Request.Context(), ident)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicles))
}

// ListAll handles GET /vehicles/all, the unscoped fleet view.
func (h *VehicleHandler) ListAll(c *gin.Context) {
	vehicles, err := h.vehicleService.ListAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicles))
}

// MyAssigned handles GET /vehicles/my-assigned for drivers.
func (h *VehicleHandler) MyAssigned(c *gin.Context) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	vehicles, err := h.vehicleService.ListAssignedTo(c.Request.Context(), ident.UserID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicles))
}

// AssignDriver handles PATCH /vehicles/:id/assign-driver
// @Summary      Assign a driver
// @Description  Assigns a driver to an unassigned vehicle in the same region; the driver must hold a license
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Vehicle ID"
// @Param        payload  body      service.AssignDriverRequest  true  "Driver Payload"
// @Success      200      {object}  response.Response{data=model.Vehicle}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /vehicles/{id}/assign-driver [patch]
func (h *VehicleHandler) AssignDriver(c *gin.Context) {
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

// UnassignDriver handles PATCH /vehicles/:id/unassign-driver
func (h *VehicleHandler) UnassignDriver(c *gin.Context) {
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

// Delete handles DELETE /vehicles/:id
func (h *VehicleHandler) Delete(c *gin.Context) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	if err := h.vehicleService.Delete(c.Request.Context(), ident, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Vehicle deleted successfully"))
}

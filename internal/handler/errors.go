package handler

import (
	"errors"
	"net/http"

	"fleet/internal/service"
	"fleet/internal/storage"
	"fleet/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto the HTTP taxonomy: 401 credential
// failures, 403 role/scope denials, 404 absent entities, 400 validation
// and state conflicts, 500 everything unexpected.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrSuperRoleImmutable),
		errors.Is(err, service.ErrOutsideRegion):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrVehicleNotFound),
		errors.Is(err, service.ErrDriverNotFound),
		errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrPermissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRegion),
		errors.Is(err, service.ErrInvalidTargetRole),
		errors.Is(err, service.ErrRegionRequired),
		errors.Is(err, service.ErrInvalidFuelType),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrDuplicateVehicle),
		errors.Is(err, service.ErrDuplicatePermission),
		errors.Is(err, service.ErrPermissionInUse),
		errors.Is(err, service.ErrAlreadyAssigned),
		errors.Is(err, service.ErrNotAssigned),
		errors.Is(err, service.ErrVehicleInUse),
		errors.Is(err, service.ErrMissingLicense),
		errors.Is(err, service.ErrInvalidDriver),
		errors.Is(err, service.ErrRegionMismatch),
		errors.Is(err, storage.ErrFileTooLarge),
		errors.Is(err, storage.ErrUnsupportedType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error envelope with the mapped status code.
func fail(c *gin.Context, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.JSON(code, response.Error(code, msg))
}

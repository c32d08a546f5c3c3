package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fleet/internal/model"
	"fleet/internal/repository"
	"fleet/internal/storage"
	ws "fleet/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrVehicleNotFound      = errors.New("vehicle not found")
	ErrDriverNotFound       = errors.New("driver not found")
	ErrInvalidDriver        = errors.New("user is not a driver")
	ErrRegionMismatch       = errors.New("driver region does not match vehicle region")
	ErrMissingLicense       = errors.New("driver has not uploaded a license")
	ErrAlreadyAssigned      = errors.New("vehicle is already assigned")
	ErrNotAssigned          = errors.New("vehicle is not currently assigned")
	ErrVehicleInUse         = errors.New("vehicle is currently assigned and cannot be deleted")
	ErrOutsideRegion        = errors.New("vehicle is outside your region")
	ErrDuplicateVehicle     = errors.New("registration number already exists")
	ErrRegionRequired       = errors.New("region is required")
	ErrInvalidFuelType      = errors.New("fuel type must be petrol, diesel, electric or hybrid")
	ErrAssignStateUnsettled = errors.New("assignment state update failed")
)

// CreateVehicleRequest carries the validated form fields plus the stored
// document paths (the handler persists the three uploads first).
type CreateVehicleRequest struct {
	RegistrationNumber string
	Model              string
	SeatingCapacity    int
	FuelType           string
	Region             string
	RCFile             string
	PermitFile         string
	PollutionFile      string
}

type AssignDriverRequest struct {
	DriverID string `json:"driverId" binding:"required"`
}

// VehicleService owns the vehicle lifecycle and the assignment state
// machine. Every transition that touches the Vehicle/DriverDocument pointer
// pair runs here, inside a single transaction, vehicle write first.
type VehicleService interface {
	Create(ctx context.Context, actor model.Identity, req CreateVehicleRequest) (*model.Vehicle, error)
	List(ctx context.Context, actor model.Identity) ([]model.Vehicle, error)
	ListAll(ctx context.Context) ([]model.Vehicle, error)
	ListAssignedTo(ctx context.Context, driverID uuid.UUID) ([]model.Vehicle, error)
	AssignDriver(ctx context.Context, actor model.Identity, vehicleID, driverID string) (*model.Vehicle, error)
	UnassignDriver(ctx context.Context, actor model.Identity, vehicleID string) error
	Delete(ctx context.Context, actor model.Identity, vehicleID string) error
}

type vehicleService struct {
	vehicles repository.VehicleRepository
	users    repository.UserRepository
	docs     repository.DriverDocumentRepository
	audit    repository.AuditRepository
	txMgr    repository.TransactionManager
	store    storage.Store
	hub      *ws.Hub
}

// NewVehicleService returns a new instance of VehicleService. hub may be
// nil when no live feed is wired (tests).
func NewVehicleService(
	vehicles repository.VehicleRepository,
	users repository.UserRepository,
	docs repository.DriverDocumentRepository,
	audit repository.AuditRepository,
	txMgr repository.TransactionManager,
	store storage.Store,
	hub *ws.Hub,
) VehicleService {
	return &vehicleService{
		vehicles: vehicles,
		users:    users,
		docs:     docs,
		audit:    audit,
		txMgr:    txMgr,
		store:    store,
		hub:      hub,
	}
}

func (s *vehicleService) broadcast(ev ws.Event) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ev)
	}
}

func sameRegion(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (s *vehicleService) Create(ctx context.Context, actor model.Identity, req CreateVehicleRequest) (*model.Vehicle, error) {
	if strings.TrimSpace(req.Region) == "" {
		return nil, ErrRegionRequired
	}
	// A vendor with a region can only register vehicles into it.
	if actor.Region != "" && !sameRegion(actor.Region, req.Region) {
		return nil, ErrOutsideRegion
	}

	fuel, ok := model.NormalizeFuelType(req.FuelType)
	if !ok {
		return nil, ErrInvalidFuelType
	}

	if _, err := s.vehicles.GetByRegistration(ctx, req.RegistrationNumber); err == nil {
		return nil, ErrDuplicateVehicle
	}

	vehicle := &model.Vehicle{
		RegistrationNumber: req.RegistrationNumber,
		Model:              req.Model,
		SeatingCapacity:    req.SeatingCapacity,
		FuelType:           fuel,
		Region:             req.Region,
		RCFile:             req.RCFile,
		PermitFile:         req.PermitFile,
		PollutionFile:      req.PollutionFile,
		CreatedBy:          actor.UserID,
	}

	err := s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.vehicles.Create(txCtx, vehicle); err != nil {
			return err
		}

		actorID := actor.UserID
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionCreateVehicle,
			EntityID:   vehicle.ID.String(),
			EntityName: vehicle.RegistrationNumber,
			Details:    fmt.Sprintf(`{"region":%q,"fuelType":%q}`, vehicle.Region, vehicle.FuelType),
		})
	})
	if err != nil {
		return nil, err
	}

	return vehicle, nil
}

// List applies the caller's visibility scope: super sees everything, a
// regional vendor sees the union of their region and their own creations,
// a vendor with no region sees only their own creations.
func (s *vehicleService) List(ctx context.Context, actor model.Identity) ([]model.Vehicle, error) {
	scope := repository.VehicleScope{}
	if actor.Role != model.RoleSuperVendor {
		if actor.Region != "" {
			scope.RestrictRegion = true
			scope.Region = actor.Region
			scope.CreatedBy = actor.UserID
		} else {
			scope.CreatorOnly = true
			scope.CreatedBy = actor.UserID
		}
	}
	return s.vehicles.List(ctx, scope)
}

func (s *vehicleService) ListAll(ctx context.Context) ([]model.Vehicle, error) {
	return s.vehicles.List(ctx, repository.VehicleScope{})
}

func (s *vehicleService) ListAssignedTo(ctx context.Context, driverID uuid.UUID) ([]model.Vehicle, error) {
	return s.vehicles.ListByDriver(ctx, driverID)
}

// AssignDriver moves a vehicle from Unassigned to Assigned(driver) and
// mirrors the assignment onto the driver's document, as one transaction.
// Concurrent assigns are serialized by the guard on the assigned flag:
// the loser fails with ErrAlreadyAssigned instead of overwriting.
func (s *vehicleService) AssignDriver(ctx context.Context, actor model.Identity, vehicleID, driverID string) (*model.Vehicle, error) {
	vid, err := uuid.Parse(vehicleID)
	if err != nil {
		return nil, ErrVehicleNotFound
	}
	did, err := uuid.Parse(driverID)
	if err != nil {
		return nil, ErrDriverNotFound
	}

	var assigned *model.Vehicle
	err = s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		vehicle, err := s.vehicles.GetByID(txCtx, vid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVehicleNotFound
			}
			return err
		}

		// Regional vendors only operate on vehicles in their region.
		if actor.Role == model.RoleRegionalVendor && !sameRegion(actor.Region, vehicle.Region) {
			return ErrOutsideRegion
		}

		driver, err := s.users.GetByID(txCtx, did.String())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDriverNotFound
			}
			return err
		}
		if driver.Role != model.RoleDriver {
			return ErrInvalidDriver
		}
		if !sameRegion(driver.Region, vehicle.Region) {
			return ErrRegionMismatch
		}

		// A driver without an uploaded license cannot hold a vehicle.
		if _, err := s.docs.GetByUserID(txCtx, did); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMissingLicense
			}
			return err
		}

		rows, err := s.vehicles.MarkAssigned(txCtx, vid, did)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyAssigned
		}

		docRows, err := s.docs.SetVehicle(txCtx, did, &vid)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAssignStateUnsettled, err)
		}
		if docRows == 0 {
			return ErrAssignStateUnsettled
		}

		actorID := actor.UserID
		if err := s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionAssignVehicle,
			EntityID:   vehicle.ID.String(),
			EntityName: vehicle.RegistrationNumber,
			Details:    fmt.Sprintf(`{"driverId":%q}`, did.String()),
		}); err != nil {
			return err
		}

		vehicle.Assigned = true
		vehicle.DriverID = &did
		assigned = vehicle
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(ws.Event{
		Type:      ws.EventVehicleAssigned,
		VehicleID: assigned.ID.String(),
		DriverID:  did.String(),
		Region:    assigned.Region,
	})

	return assigned, nil
}

// UnassignDriver clears the assignment and the document mirror together.
func (s *vehicleService) UnassignDriver(ctx context.Context, actor model.Identity, vehicleID string) error {
	vid, err := uuid.Parse(vehicleID)
	if err != nil {
		return ErrVehicleNotFound
	}

	var region string
	var oldDriver uuid.UUID
	err = s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		vehicle, err := s.vehicles.GetByID(txCtx, vid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVehicleNotFound
			}
			return err
		}

		if actor.Role == model.RoleRegionalVendor && !sameRegion(actor.Region, vehicle.Region) {
			return ErrOutsideRegion
		}
		if !vehicle.Assigned || vehicle.DriverID == nil {
			return ErrNotAssigned
		}
		oldDriver = *vehicle.DriverID
		region = vehicle.Region

		rows, err := s.vehicles.MarkUnassigned(txCtx, vid)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotAssigned
		}

		if _, err := s.docs.SetVehicle(txCtx, oldDriver, nil); err != nil {
			return fmt.Errorf("%w: %v", ErrAssignStateUnsettled, err)
		}

		actorID := actor.UserID
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionUnassignVehicle,
			EntityID:   vehicle.ID.String(),
			EntityName: vehicle.RegistrationNumber,
			Details:    fmt.Sprintf(`{"driverId":%q}`, oldDriver.String()),
		})
	})
	if err != nil {
		return err
	}

	s.broadcast(ws.Event{
		Type:      ws.EventVehicleUnassigned,
		VehicleID: vid.String(),
		DriverID:  oldDriver.String(),
		Region:    region,
	})

	return nil
}

// Delete removes an unassigned vehicle, clears any document still pointing
// at it (self-heal against a pre-existing inconsistency) and drops the
// stored blobs best-effort.
func (s *vehicleService) Delete(ctx context.Context, actor model.Identity, vehicleID string) error {
	vid, err := uuid.Parse(vehicleID)
	if err != nil {
		return ErrVehicleNotFound
	}

	var blobs []string
	var region string
	err = s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		vehicle, err := s.vehicles.GetByID(txCtx, vid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVehicleNotFound
			}
			return err
		}

		if actor.Role == model.RoleRegionalVendor &&
			!sameRegion(actor.Region, vehicle.Region) && vehicle.CreatedBy != actor.UserID {
			return ErrOutsideRegion
		}
		if vehicle.Assigned {
			return ErrVehicleInUse
		}

		rows, err := s.vehicles.DeleteUnassigned(txCtx, vid)
		if err != nil {
			return err
		}
		if rows == 0 {
			// Raced with a concurrent assign.
			return ErrVehicleInUse
		}

		if err := s.docs.ClearVehicleRefs(txCtx, vid); err != nil {
			return err
		}

		blobs = []string{vehicle.RCFile, vehicle.PermitFile, vehicle.PollutionFile}
		region = vehicle.Region

		actorID := actor.UserID
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionDeleteVehicle,
			EntityID:   vehicle.ID.String(),
			EntityName: vehicle.RegistrationNumber,
		})
	})
	if err != nil {
		return err
	}

	if s.store != nil {
		for _, b := range blobs {
			s.store.Remove(b)
		}
	}

	s.broadcast(ws.Event{
		Type:      ws.EventVehicleDeleted,
		VehicleID: vid.String(),
		Region:    region,
	})

	return nil
}

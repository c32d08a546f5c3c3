package service

import (
	"context"
	"strings"

	"fleet/internal/model"
	"fleet/internal/repository"

	"github.com/google/uuid"
)

// RegionDashboard aggregates a regional vendor's numbers plus their own
// custom permissions, re-read so grants made since login show up.
type RegionDashboard struct {
	TotalDrivers     int64    `json:"totalDrivers"`
	TotalVehicles    int64    `json:"totalVehicles"`
	DriversAssigned  int64    `json:"driversAssigned"`
	VehiclesAssigned int64    `json:"vehiclesAssigned"`
	Permissions      []string `json:"permissions"`
}

// SuperStats is the cross-system aggregate for the super vendor landing page.
type SuperStats struct {
	TotalUsers       int64    `json:"total_users"`
	TotalRoles       int64    `json:"total_roles"`
	TotalPermissions int64    `json:"total_permissions"`
	Roles            []string `json:"roles"`
}

// VehicleRef is the compact vehicle view used in the driver overview.
type VehicleRef struct {
	ID                 string `json:"id"`
	RegistrationNumber string `json:"registrationNumber"`
	Model              string `json:"model"`
}

// DriverOverviewRow merges a driver with their license and vehicle state,
// plus the unassigned vehicles available in their region.
type DriverOverviewRow struct {
	UserID            string       `json:"userId"`
	FirstName         string       `json:"firstName"`
	LastName          string       `json:"lastName"`
	Email             string       `json:"email"`
	Region            string       `json:"region"`
	License           *string      `json:"license"`
	Vehicles          []VehicleRef `json:"vehicles"`
	AvailableVehicles []VehicleRef `json:"availableVehicles"`
}

// DashboardService backs the aggregate views: the regional dashboard, the
// super vendor stats and the cross-region driver overview.
type DashboardService interface {
	RegionDashboard(ctx context.Context, actor model.Identity) (*RegionDashboard, error)
	SuperStats(ctx context.Context) (*SuperStats, error)
	DriverOverview(ctx context.Context) ([]DriverOverviewRow, error)
}

type dashboardService struct {
	users    repository.UserRepository
	vehicles repository.VehicleRepository
	docs     repository.DriverDocumentRepository
	perms    repository.PermissionRepository
}

// NewDashboardService returns a new instance of DashboardService.
func NewDashboardService(
	users repository.UserRepository,
	vehicles repository.VehicleRepository,
	docs repository.DriverDocumentRepository,
	perms repository.PermissionRepository,
) DashboardService {
	return &dashboardService{users: users, vehicles: vehicles, docs: docs, perms: perms}
}

func (s *dashboardService) RegionDashboard(ctx context.Context, actor model.Identity) (*RegionDashboard, error) {
	region := actor.Region

	totalDrivers, err := s.users.CountDriversByRegion(ctx, region)
	if err != nil {
		return nil, err
	}
	totalVehicles, err := s.vehicles.CountByRegion(ctx, region)
	if err != nil {
		return nil, err
	}
	assignedDrivers, err := s.vehicles.DistinctAssignedDrivers(ctx, region)
	if err != nil {
		return nil, err
	}
	vehiclesAssigned, err := s.vehicles.CountAssignedByRegion(ctx, region)
	if err != nil {
		return nil, err
	}

	// Fresh fetch of the vendor's permissions.
	vendor, err := s.users.GetByID(ctx, actor.UserID.String())
	if err != nil {
		return nil, ErrUserNotFound
	}
	perms := vendor.CustomPermissions
	if perms == nil {
		perms = model.StringList{}
	}

	return &RegionDashboard{
		TotalDrivers:     totalDrivers,
		TotalVehicles:    totalVehicles,
		DriversAssigned:  int64(len(assignedDrivers)),
		VehiclesAssigned: vehiclesAssigned,
		Permissions:      perms,
	}, nil
}

func (s *dashboardService) SuperStats(ctx context.Context) (*SuperStats, error) {
	drivers, err := s.users.CountByRole(ctx, model.RoleDriver)
	if err != nil {
		return nil, err
	}
	regionals, err := s.users.CountByRole(ctx, model.RoleRegionalVendor)
	if err != nil {
		return nil, err
	}
	totalPerms, err := s.perms.Count(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.users.DistinctRoles(ctx)
	if err != nil {
		return nil, err
	}

	return &SuperStats{
		TotalUsers:       drivers + regionals,
		TotalRoles:       int64(len(roles)),
		TotalPermissions: totalPerms,
		Roles:            roles,
	}, nil
}

// DriverOverview merges every driver with their license, their assigned
// vehicles and the unassigned vehicles of their region.
func (s *dashboardService) DriverOverview(ctx context.Context) ([]DriverOverviewRow, error) {
	drivers, err := s.users.ListByRole(ctx, model.RoleDriver)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(drivers))
	for _, d := range drivers {
		ids = append(ids, d.ID)
	}

	docs, err := s.docs.ListByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	docByUser := make(map[uuid.UUID]string, len(docs))
	for _, d := range docs {
		docByUser[d.UserID] = d.FilePath
	}

	assignedByDriver := make(map[uuid.UUID][]VehicleRef)
	for _, d := range drivers {
		vehicles, err := s.vehicles.ListByDriver(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		for _, v := range vehicles {
			assignedByDriver[d.ID] = append(assignedByDriver[d.ID], VehicleRef{
				ID:                 v.ID.String(),
				RegistrationNumber: v.RegistrationNumber,
				Model:              v.Model,
			})
		}
	}

	unassigned, err := s.vehicles.ListUnassigned(ctx)
	if err != nil {
		return nil, err
	}
	availByRegion := make(map[string][]VehicleRef)
	for _, v := range unassigned {
		key := strings.ToLower(v.Region)
		availByRegion[key] = append(availByRegion[key], VehicleRef{
			ID:                 v.ID.String(),
			RegistrationNumber: v.RegistrationNumber,
			Model:              v.Model,
		})
	}

	out := make([]DriverOverviewRow, 0, len(drivers))
	for _, d := range drivers {
		row := DriverOverviewRow{
			UserID:            d.ID.String(),
			FirstName:         d.FirstName,
			LastName:          d.LastName,
			Email:             d.Email,
			Region:            d.Region,
			Vehicles:          assignedByDriver[d.ID],
			AvailableVehicles: availByRegion[strings.ToLower(d.Region)],
		}
		if path, ok := docByUser[d.ID]; ok {
			p := path
			row.License = &p
		}
		if row.Vehicles == nil {
			row.Vehicles = []VehicleRef{}
		}
		if row.AvailableVehicles == nil {
			row.AvailableVehicles = []VehicleRef{}
		}
		out = append(out, row)
	}
	return out, nil
}

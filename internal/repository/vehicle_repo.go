package repository

import (
	"context"
	"strings"

	"fleet/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehicleScope is the visibility predicate applied to vehicle listings.
// Zero value means unrestricted (super_vendor).
type VehicleScope struct {
	Region         string    // restrict to this region (case-insensitive)
	CreatedBy      uuid.UUID // union with rows created by this user
	CreatorOnly    bool      // no region on the caller: own creations only
	RestrictRegion bool
}

// VehicleRepository defines data access for Vehicle entities, including
// the guarded state transitions used by the assignment engine.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	GetByRegistration(ctx context.Context, registrationNumber string) (*model.Vehicle, error)
	List(ctx context.Context, scope VehicleScope) ([]model.Vehicle, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]model.Vehicle, error)
	ListUnassigned(ctx context.Context) ([]model.Vehicle, error)
	MarkAssigned(ctx context.Context, vehicleID, driverID uuid.UUID) (int64, error)
	MarkUnassigned(ctx context.Context, vehicleID uuid.UUID) (int64, error)
	DeleteUnassigned(ctx context.Context, vehicleID uuid.UUID) (int64, error)
	CountByRegion(ctx context.Context, region string) (int64, error)
	CountAssignedByRegion(ctx context.Context, region string) (int64, error)
	DistinctAssignedDrivers(ctx context.Context, region string) ([]uuid.UUID, error)
}

type vehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository returns a new instance of VehicleRepository.
func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	return GetDB(ctx, r.db).Create(vehicle).Error
}

func (r *vehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := GetDB(ctx, r.db).First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) GetByRegistration(ctx context.Context, registrationNumber string) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := GetDB(ctx, r.db).First(&vehicle, "registration_number = ?", registrationNumber).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) List(ctx context.Context, scope VehicleScope) ([]model.Vehicle, error) {
	q := GetDB(ctx, r.db).Order("created_at desc")

	switch {
	case scope.CreatorOnly:
		q = q.Where("created_by = ?", scope.CreatedBy)
	case scope.RestrictRegion:
		// Union of "my region" and "my own creations".
		q = q.Where("LOWER(region) = ? OR created_by = ?", strings.ToLower(scope.Region), scope.CreatedBy)
	}

	var vehicles []model.Vehicle
	if err := q.Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *vehicleRepository) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	if err := GetDB(ctx, r.db).Where("driver_id = ?", driverID).Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *vehicleRepository) ListUnassigned(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	if err := GetDB(ctx, r.db).Where("assigned = ?", false).Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// MarkAssigned flips an unassigned vehicle to assigned. The WHERE guard on
// the assigned flag serializes concurrent assigns: the loser sees zero
// affected rows instead of overwriting the winner's driver.
func (r *vehicleRepository) MarkAssigned(ctx context.Context, vehicleID, driverID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Vehicle{}).
		Where("id = ? AND assigned = ?", vehicleID, false).
		Updates(map[string]interface{}{"assigned": true, "driver_id": driverID})
	return res.RowsAffected, res.Error
}

// MarkUnassigned clears assignment, guarded on the vehicle being assigned.
func (r *vehicleRepository) MarkUnassigned(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Vehicle{}).
		Where("id = ? AND assigned = ?", vehicleID, true).
		Updates(map[string]interface{}{"assigned": false, "driver_id": nil})
	return res.RowsAffected, res.Error
}

// DeleteUnassigned removes the vehicle only while unassigned.
func (r *vehicleRepository) DeleteUnassigned(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("id = ? AND assigned = ?", vehicleID, false).
		Delete(&model.Vehicle{})
	return res.RowsAffected, res.Error
}

func (r *vehicleRepository) CountByRegion(ctx context.Context, region string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Vehicle{}).
		Where("LOWER(region) = ?", strings.ToLower(region)).
		Count(&count).Error
	return count, err
}

func (r *vehicleRepository) CountAssignedByRegion(ctx context.Context, region string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Vehicle{}).
		Where("LOWER(region) = ? AND assigned = ?", strings.ToLower(region), true).
		Count(&count).Error
	return count, err
}

func (r *vehicleRepository) DistinctAssignedDrivers(ctx context.Context, region string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.Vehicle{}).
		Where("LOWER(region) = ? AND driver_id IS NOT NULL", strings.ToLower(region)).
		Distinct("driver_id").
		Pluck("driver_id", &ids).Error
	return ids, err
}

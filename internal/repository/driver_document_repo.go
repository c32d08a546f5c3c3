package repository

import (
	"context"

	"fleet/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DriverDocumentRepository defines data access for DriverDocument rows.
type DriverDocumentRepository interface {
	Create(ctx context.Context, doc *model.DriverDocument) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.DriverDocument, error)
	ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]model.DriverDocument, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	SetVehicle(ctx context.Context, userID uuid.UUID, vehicleID *uuid.UUID) (int64, error)
	ClearVehicleRefs(ctx context.Context, vehicleID uuid.UUID) error
}

type driverDocumentRepository struct {
	db *gorm.DB
}

// NewDriverDocumentRepository returns a new instance of DriverDocumentRepository.
func NewDriverDocumentRepository(db *gorm.DB) DriverDocumentRepository {
	return &driverDocumentRepository{db: db}
}

func (r *driverDocumentRepository) Create(ctx context.Context, doc *model.DriverDocument) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *driverDocumentRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.DriverDocument, error) {
	var doc model.DriverDocument
	if err := GetDB(ctx, r.db).First(&doc, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *driverDocumentRepository) ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]model.DriverDocument, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var docs []model.DriverDocument
	if err := GetDB(ctx, r.db).Where("user_id IN ?", userIDs).Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *driverDocumentRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("user_id = ?", userID).Delete(&model.DriverDocument{}).Error
}

// SetVehicle points (or clears, with nil) the document's vehicle mirror.
func (r *driverDocumentRepository) SetVehicle(ctx context.Context, userID uuid.UUID, vehicleID *uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.DriverDocument{}).
		Where("user_id = ?", userID).
		Update("vehicle_id", vehicleID)
	return res.RowsAffected, res.Error
}

// ClearVehicleRefs nils the mirror on every document still referencing the
// vehicle. Used on vehicle delete as a self-heal against stale pointers.
func (r *driverDocumentRepository) ClearVehicleRefs(ctx context.Context, vehicleID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.DriverDocument{}).
		Where("vehicle_id = ?", vehicleID).
		Update("vehicle_id", nil).Error
}

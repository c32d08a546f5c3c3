package repository

import (
	"context"
	"time"

	"fleet/internal/model"

	"gorm.io/gorm"
)

// PermissionRepository defines data access for the permission catalog and
// the per-role default grants.
type PermissionRepository interface {
	List(ctx context.Context) ([]model.Permission, error)
	GetByName(ctx context.Context, name string) (*model.Permission, error)
	Create(ctx context.Context, perm *model.Permission) error
	DeleteByName(ctx context.Context, name string) error
	ListGrantsForRole(ctx context.Context, role string) ([]model.RolePermission, error)
	UpsertGrant(ctx context.Context, role, permissionName string, isGranted bool) (*model.RolePermission, error)
	DeleteGrantsByName(ctx context.Context, permissionName string) error
	Count(ctx context.Context) (int64, error)
}

type permissionRepository struct {
	db *gorm.DB
}

// NewPermissionRepository returns a new instance of PermissionRepository.
func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) List(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("permission_name asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *permissionRepository) GetByName(ctx context.Context, name string) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).First(&perm, "permission_name = ?", name).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *permissionRepository) Create(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Create(perm).Error
}

func (r *permissionRepository) DeleteByName(ctx context.Context, name string) error {
	return GetDB(ctx, r.db).Where("permission_name = ?", name).Delete(&model.Permission{}).Error
}

func (r *permissionRepository) ListGrantsForRole(ctx context.Context, role string) ([]model.RolePermission, error) {
	var grants []model.RolePermission
	if err := GetDB(ctx, r.db).Where("role = ?", role).Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

// UpsertGrant creates or updates the (role, permission) default grant.
func (r *permissionRepository) UpsertGrant(ctx context.Context, role, permissionName string, isGranted bool) (*model.RolePermission, error) {
	db := GetDB(ctx, r.db)

	var grant model.RolePermission
	err := db.Where("role = ? AND permission_name = ?", role, permissionName).First(&grant).Error
	switch {
	case err == nil:
		grant.IsGranted = isGranted
		grant.GrantedAt = time.Now()
		if err := db.Save(&grant).Error; err != nil {
			return nil, err
		}
		return &grant, nil
	case err == gorm.ErrRecordNotFound:
		grant = model.RolePermission{
			Role:           role,
			PermissionName: permissionName,
			IsGranted:      isGranted,
			GrantedAt:      time.Now(),
		}
		if err := db.Create(&grant).Error; err != nil {
			return nil, err
		}
		return &grant, nil
	default:
		return nil, err
	}
}

func (r *permissionRepository) DeleteGrantsByName(ctx context.Context, permissionName string) error {
	return GetDB(ctx, r.db).Where("permission_name = ?", permissionName).Delete(&model.RolePermission{}).Error
}

func (r *permissionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Permission{}).Count(&count).Error
	return count, err
}

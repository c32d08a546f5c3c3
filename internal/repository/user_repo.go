package repository

import (
	"context"
	"strings"

	"fleet/internal/model"

	"gorm.io/gorm"
)

// UserRepository defines data access for User entities.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	ListDriversByRegion(ctx context.Context, region string) ([]model.User, error)
	ListByRole(ctx context.Context, role string) ([]model.User, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	CountDriversByRegion(ctx context.Context, region string) (int64, error)
	DistinctRoles(ctx context.Context) ([]string, error)
	CountWithPermission(ctx context.Context, permissionName string) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	if err := GetDB(ctx, r.db).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := GetDB(ctx, r.db).Order("created_at asc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

// ListDriversByRegion compares regions case-insensitively.
func (r *userRepository) ListDriversByRegion(ctx context.Context, region string) ([]model.User, error) {
	var drivers []model.User
	err := GetDB(ctx, r.db).
		Where("role = ? AND LOWER(region) = ?", model.RoleDriver, strings.ToLower(region)).
		Order("created_at asc").
		Find(&drivers).Error
	if err != nil {
		return nil, err
	}
	return drivers, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	var users []model.User
	if err := GetDB(ctx, r.db).Where("role = ?", role).Order("created_at asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

func (r *userRepository) CountDriversByRegion(ctx context.Context, region string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).
		Where("role = ? AND LOWER(region) = ?", model.RoleDriver, strings.ToLower(region)).
		Count(&count).Error
	return count, err
}

func (r *userRepository) DistinctRoles(ctx context.Context) ([]string, error) {
	var roles []string
	err := GetDB(ctx, r.db).Model(&model.User{}).Distinct("role").Pluck("role", &roles).Error
	return roles, err
}

// CountWithPermission counts users whose customPermissions set references
// the given name. The JSON column is decoded in Go to stay portable across
// the Postgres and sqlite dialects; the catalog-admin path is not hot.
func (r *userRepository) CountWithPermission(ctx context.Context, permissionName string) (int64, error) {
	var rows []model.User
	if err := GetDB(ctx, r.db).Select("id", "custom_permissions").Find(&rows).Error; err != nil {
		return 0, err
	}

	var count int64
	for _, u := range rows {
		if u.CustomPermissions.Contains(permissionName) {
			count++
		}
	}
	return count, nil
}

package service

import (
	"context"
	"errors"

	"fleet/internal/model"
	"fleet/internal/repository"
)

var (
	ErrSuperRoleImmutable = errors.New("a super_vendor's role cannot be changed")
	ErrInvalidTargetRole  = errors.New("role must be one of regional_vendor, city_vendor, local_vendor, driver")
)

type UpdatePermissionsRequest struct {
	CustomPermissions []string `json:"customPermissions" binding:"required"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UserSummary is the admin-facing view of an account.
type UserSummary struct {
	ID                string   `json:"id"`
	FirstName         string   `json:"firstName"`
	LastName          string   `json:"lastName"`
	Email             string   `json:"email"`
	Role              string   `json:"role"`
	Region            string   `json:"region,omitempty"`
	CustomPermissions []string `json:"customPermissions"`
}

// UserService covers user administration: listings, the per-user
// customPermissions override set, and role changes.
type UserService interface {
	ListUsers(ctx context.Context, offset, limit int) ([]UserSummary, int64, error)
	UpdatePermissions(ctx context.Context, userID string, req UpdatePermissionsRequest) (*UserSummary, error)
	UpdateRole(ctx context.Context, actor model.Identity, userID string, req UpdateRoleRequest) (*UserSummary, error)
	ListDriversInRegion(ctx context.Context, region string) ([]UserSummary, error)
}

type userService struct {
	users repository.UserRepository
	audit repository.AuditRepository
}

// NewUserService returns a new instance of UserService.
func NewUserService(users repository.UserRepository, audit repository.AuditRepository) UserService {
	return &userService{users: users, audit: audit}
}

func toUserSummary(u *model.User) *UserSummary {
	perms := u.CustomPermissions
	if perms == nil {
		perms = model.StringList{}
	}
	return &UserSummary{
		ID:                u.ID.String(),
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             u.Email,
		Role:              u.Role,
		Region:            u.Region,
		CustomPermissions: perms,
	}
}

func (s *userService) ListUsers(ctx context.Context, offset, limit int) ([]UserSummary, int64, error) {
	users, total, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]UserSummary, 0, len(users))
	for i := range users {
		out = append(out, *toUserSummary(&users[i]))
	}
	return out, total, nil
}

// UpdatePermissions overwrites the user's customPermissions set wholesale.
// Role defaults in role_permissions are never touched here.
func (s *userService) UpdatePermissions(ctx context.Context, userID string, req UpdatePermissionsRequest) (*UserSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user.CustomPermissions = model.StringList(req.CustomPermissions)
	if user.CustomPermissions == nil {
		user.CustomPermissions = model.StringList{}
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return toUserSummary(user), nil
}

// UpdateRole changes another user's tier. A super_vendor's own role is
// immutable, and super_vendor cannot be granted this way.
func (s *userService) UpdateRole(ctx context.Context, actor model.Identity, userID string, req UpdateRoleRequest) (*UserSummary, error) {
	switch req.Role {
	case model.RoleRegionalVendor, model.RoleCityVendor, model.RoleLocalVendor, model.RoleDriver:
	default:
		return nil, ErrInvalidTargetRole
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if user.Role == model.RoleSuperVendor {
		return nil, ErrSuperRoleImmutable
	}

	oldRole := user.Role
	user.Role = req.Role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	actorID := actor.UserID
	entry := &model.AuditLog{
		UserID:     &actorID,
		Action:     model.ActionChangeUserRole,
		EntityID:   user.ID.String(),
		EntityName: user.Email,
		Details:    `{"from":"` + oldRole + `","to":"` + req.Role + `"}`,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		return nil, err
	}

	return toUserSummary(user), nil
}

// ListDriversInRegion backs the regional vendor's driver roster.
func (s *userService) ListDriversInRegion(ctx context.Context, region string) ([]UserSummary, error) {
	drivers, err := s.users.ListDriversByRegion(ctx, region)
	if err != nil {
		return nil, err
	}

	out := make([]UserSummary, 0, len(drivers))
	for i := range drivers {
		out = append(out, *toUserSummary(&drivers[i]))
	}
	return out, nil
}

package service

import (
	"context"
	"errors"

	"fleet/internal/model"
	"fleet/internal/repository"
)

var (
	ErrDuplicatePermission = errors.New("permission name already exists")
	ErrPermissionInUse     = errors.New("permission is referenced by user custom permissions")
	ErrPermissionNotFound  = errors.New("permission not found")
)

type CreatePermissionRequest struct {
	PermissionName string `json:"permissionName" binding:"required"`
	Description    string `json:"description"`
	Module         string `json:"module"`
}

type GrantRequest struct {
	PermissionName string `json:"permissionName" binding:"required"`
	IsGranted      *bool  `json:"isGranted" binding:"required"`
}

type PermissionResponse struct {
	ID             string `json:"id"`
	PermissionName string `json:"permissionName"`
	Description    string `json:"description"`
	Module         string `json:"module,omitempty"`
}

// RolePermissionView is a catalog entry annotated with a role's default grant.
type RolePermissionView struct {
	PermissionResponse
	IsGranted bool `json:"isGranted"`
}

type GrantResponse struct {
	Role           string `json:"role"`
	PermissionName string `json:"permissionName"`
	IsGranted      bool   `json:"isGranted"`
}

// PermissionService administers the global permission catalog and the
// per-role default grants. It never mutates user customPermissions.
type PermissionService interface {
	List(ctx context.Context) ([]PermissionResponse, error)
	Create(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error)
	Delete(ctx context.Context, name string) error
	ListForRole(ctx context.Context, role string) ([]RolePermissionView, error)
	GrantToRole(ctx context.Context, role string, req GrantRequest) (*GrantResponse, error)
}

type permissionService struct {
	perms repository.PermissionRepository
	users repository.UserRepository
	txMgr repository.TransactionManager
}

// NewPermissionService returns a new instance of PermissionService.
func NewPermissionService(perms repository.PermissionRepository, users repository.UserRepository, txMgr repository.TransactionManager) PermissionService {
	return &permissionService{perms: perms, users: users, txMgr: txMgr}
}

func toPermissionResponse(p *model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:             p.ID.String(),
		PermissionName: p.PermissionName,
		Description:    p.Description,
		Module:         p.Module,
	}
}

func (s *permissionService) List(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.perms.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]PermissionResponse, 0, len(perms))
	for i := range perms {
		out = append(out, toPermissionResponse(&perms[i]))
	}
	return out, nil
}

func (s *permissionService) Create(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error) {
	if _, err := s.perms.GetByName(ctx, req.PermissionName); err == nil {
		return nil, ErrDuplicatePermission
	}

	perm := &model.Permission{
		PermissionName: req.PermissionName,
		Description:    req.Description,
		Module:         req.Module,
	}
	if err := s.perms.Create(ctx, perm); err != nil {
		return nil, err
	}

	resp := toPermissionResponse(perm)
	return &resp, nil
}

// Delete removes a catalog entry together with its role-default grants.
// Refused while any user's customPermissions still references the name;
// the role grants carry no such guard.
func (s *permissionService) Delete(ctx context.Context, name string) error {
	if _, err := s.perms.GetByName(ctx, name); err != nil {
		return ErrPermissionNotFound
	}

	inUse, err := s.users.CountWithPermission(ctx, name)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrPermissionInUse
	}

	return s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.perms.DeleteByName(txCtx, name); err != nil {
			return err
		}
		return s.perms.DeleteGrantsByName(txCtx, name)
	})
}

// ListForRole returns the full catalog annotated with the role's defaults.
func (s *permissionService) ListForRole(ctx context.Context, role string) ([]RolePermissionView, error) {
	perms, err := s.perms.List(ctx)
	if err != nil {
		return nil, err
	}

	grants, err := s.perms.ListGrantsForRole(ctx, role)
	if err != nil {
		return nil, err
	}

	granted := make(map[string]bool, len(grants))
	for _, g := range grants {
		if g.IsGranted {
			granted[g.PermissionName] = true
		}
	}

	out := make([]RolePermissionView, 0, len(perms))
	for i := range perms {
		out = append(out, RolePermissionView{
			PermissionResponse: toPermissionResponse(&perms[i]),
			IsGranted:          granted[perms[i].PermissionName],
		})
	}
	return out, nil
}

func (s *permissionService) GrantToRole(ctx context.Context, role string, req GrantRequest) (*GrantResponse, error) {
	if !model.ValidRole(role) {
		return nil, errors.New("invalid role")
	}
	if _, err := s.perms.GetByName(ctx, req.PermissionName); err != nil {
		return nil, ErrPermissionNotFound
	}

	grant, err := s.perms.UpsertGrant(ctx, role, req.PermissionName, *req.IsGranted)
	if err != nil {
		return nil, err
	}

	return &GrantResponse{
		Role:           grant.Role,
		PermissionName: grant.PermissionName,
		IsGranted:      grant.IsGranted,
	}, nil
}

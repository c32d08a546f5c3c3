package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Permission is a global catalog entry: a definable permission name that
// can be granted to a user's customPermissions or to a role default.
type Permission struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PermissionName string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"permissionName"`
	Description    string    `gorm:"type:text" json:"description"`
	Module         string    `gorm:"type:varchar(50)" json:"module"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Permission) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// RolePermission is the default grant of a permission to an entire role
// tier, distinct from per-user customPermissions. Unique on (role, name).
type RolePermission struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Role           string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_role_perm" json:"role"`
	PermissionName string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_role_perm" json:"permissionName"`
	IsGranted      bool      `gorm:"not null;default:true" json:"isGranted"`
	GrantedAt      time.Time `gorm:"not null" json:"grantedAt"`
}

func (rp *RolePermission) BeforeCreate(_ *gorm.DB) error {
	if rp.ID == uuid.Nil {
		rp.ID = uuid.New()
	}
	return nil
}

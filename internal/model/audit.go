package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditTimeFormat is the display format for audit timestamps.
const AuditTimeFormat = "2006-01-02 15:04:05"

const (
	ActionAssignVehicle   = "ASSIGN_VEHICLE"
	ActionUnassignVehicle = "UNASSIGN_VEHICLE"
	ActionDeleteVehicle   = "DELETE_VEHICLE"
	ActionCreateVehicle   = "CREATE_VEHICLE"
	ActionReplaceLicense  = "REPLACE_LICENSE"
	ActionChangeUserRole  = "CHANGE_USER_ROLE"
)

// AuditLog tracks Who, What, and When for fleet state changes. Assignment
// operations write their row inside the same transaction as the
// vehicle/document pair, so the trail doubles as the reconciliation record
// for the bidirectional pointer invariant.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocTypeLicense is the only document type currently handled.
const DocTypeLicense = "license"

// DriverDocument is a driver's uploaded license. At most one row exists
// per driver (unique on UserID); re-uploads replace the row wholesale.
// VehicleID mirrors Vehicle.DriverID and is only written by the vehicle
// service's assignment transaction.
type DriverDocument struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	User       *User      `gorm:"foreignKey:UserID" json:"-"`
	DocType    string     `gorm:"type:varchar(30);not null;default:'license'" json:"docType"`
	FilePath   string     `gorm:"type:varchar(255);not null" json:"filePath"`
	VehicleID  *uuid.UUID `gorm:"type:uuid;index" json:"vehicleId"`
	UploadedAt time.Time  `gorm:"autoCreateTime" json:"uploadedAt"`
}

func (d *DriverDocument) BeforeCreate(_ *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

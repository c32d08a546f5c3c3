package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fuel types accepted for a vehicle (stored normalized lowercase).
const (
	FuelPetrol   = "petrol"
	FuelDiesel   = "diesel"
	FuelElectric = "electric"
	FuelHybrid   = "hybrid"
)

// NormalizeFuelType lowercases and validates the fuel type.
func NormalizeFuelType(fuel string) (string, bool) {
	f := strings.ToLower(strings.TrimSpace(fuel))
	switch f {
	case FuelPetrol, FuelDiesel, FuelElectric, FuelHybrid:
		return f, true
	}
	return f, false
}

// Vehicle is a fleet vehicle. Assigned and DriverID move together:
// assigned == (driver_id IS NOT NULL) at all times, and the paired
// DriverDocument.VehicleID mirror is owned by the vehicle service.
type Vehicle struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RegistrationNumber string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"registrationNumber"`
	Model              string     `gorm:"type:varchar(100);not null" json:"model"`
	SeatingCapacity    int        `gorm:"not null" json:"seatingCapacity"`
	FuelType           string     `gorm:"type:varchar(20);not null" json:"fuelType"`
	Region             string     `gorm:"type:varchar(50);not null;index" json:"region"`
	RCFile             string     `gorm:"type:varchar(255);not null" json:"rcFile"`
	PermitFile         string     `gorm:"type:varchar(255);not null" json:"permitFile"`
	PollutionFile      string     `gorm:"type:varchar(255);not null" json:"pollutionFile"`
	Assigned           bool       `gorm:"not null;default:false;index" json:"assigned"`
	DriverID           *uuid.UUID `gorm:"type:uuid;index" json:"driverId"`
	Driver             *User      `gorm:"foreignKey:DriverID" json:"-"`
	CreatedBy          uuid.UUID  `gorm:"type:uuid;not null;index" json:"createdBy"`
	Creator            *User      `gorm:"foreignKey:CreatedBy" json:"-"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (v *Vehicle) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vendor tier roles. Only super_vendor and regional_vendor carry
// differentiated rules; city/local tiers exist for registration but share
// the base vendor behavior.
const (
	RoleSuperVendor    = "super_vendor"
	RoleRegionalVendor = "regional_vendor"
	RoleCityVendor     = "city_vendor"
	RoleLocalVendor    = "local_vendor"
	RoleDriver         = "driver"
)

// Regions is the closed set of operating regions.
var Regions = []string{"northern", "southern", "central", "eastern", "western"}

// ValidRole reports whether role is one of the known tiers.
func ValidRole(role string) bool {
	switch role {
	case RoleSuperVendor, RoleRegionalVendor, RoleCityVendor, RoleLocalVendor, RoleDriver:
		return true
	}
	return false
}

// ValidRegion reports whether region is in the enumerated set.
func ValidRegion(region string) bool {
	for _, r := range Regions {
		if r == region {
			return true
		}
	}
	return false
}

// StringList stores a set of strings as a JSON column so the same model
// works on Postgres (jsonb) and the sqlite test driver.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
}

// Contains reports whether name is present in the list.
func (l StringList) Contains(name string) bool {
	for _, s := range l {
		if s == name {
			return true
		}
	}
	return false
}

// User represents the central account entity: vendors at different tiers
// and drivers share the same table, differentiated by Role.
type User struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email             string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash      string     `gorm:"type:varchar(255);not null" json:"-"`
	FirstName         string     `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName          string     `gorm:"type:varchar(100);not null" json:"lastName"`
	Role              string     `gorm:"type:varchar(50);not null;index" json:"role"`
	Region            string     `gorm:"type:varchar(50)" json:"region"`
	CustomPermissions StringList `gorm:"type:jsonb" json:"customPermissions"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the ID so inserts work the same on every driver.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Identity is the resolved caller for a request: role, region and custom
// permissions are re-read from the users table on every request so that
// admin edits take effect without re-login.
type Identity struct {
	UserID            uuid.UUID
	Role              string
	Region            string
	CustomPermissions StringList
}

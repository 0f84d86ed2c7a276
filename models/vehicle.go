package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vehicle represents a car registered to a client. Mileage only moves
// forward: it is advanced by the service-history materializer when an
// appointment completes and is never allowed to regress.
type Vehicle struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	ClientID     string         `gorm:"not null;index;size:36" json:"client_id"`
	Client       Client         `gorm:"foreignKey:ClientID" json:"-"`
	Make         string         `gorm:"not null" json:"make"`
	Model        string         `gorm:"not null" json:"model"`
	Year         int            `gorm:"not null" json:"year"`
	EngineType   string         `json:"engine_type"`
	Mileage      uint           `gorm:"not null;default:0" json:"mileage"`
	VIN          string         `gorm:"column:vin;uniqueIndex;size:17" json:"vin"`
	LicensePlate string         `gorm:"size:10" json:"license_plate"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Vehicle model
func (Vehicle) TableName() string {
	return "vehicles"
}

// BeforeCreate assigns a UUID primary key when none is set
func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

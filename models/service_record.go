package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceRecord is the durable history entry created when an appointment
// completes. At most one record exists per appointment and a record is never
// updated after creation.
type ServiceRecord struct {
	ID            string      `gorm:"primaryKey;size:36" json:"id"`
	VehicleID     string      `gorm:"not null;index;size:36" json:"vehicle_id"`
	Vehicle       Vehicle     `gorm:"foreignKey:VehicleID" json:"-"`
	AppointmentID string      `gorm:"not null;uniqueIndex;size:36" json:"appointment_id"`
	Appointment   Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
	Date          time.Time   `gorm:"not null" json:"date"` // date portion of the completion timestamp
	Description   string      `json:"description"`
	Mileage       uint        `gorm:"not null" json:"mileage"`
	CreatedAt     time.Time   `json:"created_at"`
}

// TableName specifies the table name for the ServiceRecord model
func (ServiceRecord) TableName() string {
	return "service_records"
}

// BeforeCreate assigns a UUID primary key when none is set
func (s *ServiceRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

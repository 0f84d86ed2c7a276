package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment statuses. An appointment starts as scheduled, moves to
// completed when every repair item is done, or to canceled by an explicit
// cancel action. Completed is terminal for status; the total cost stays
// mutable so late line-item corrections still land.
const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCanceled  = "canceled"
)

// Appointment represents a single workshop visit. It owns its repair items
// and parts (the ledger); total cost, estimated duration and status are
// derived from the ledger and must never be written directly by callers.
type Appointment struct {
	ID                string         `gorm:"primaryKey;size:36" json:"id"`
	WorkshopID        string         `gorm:"not null;index;size:36" json:"workshop_id"`
	Workshop          Workshop       `gorm:"foreignKey:WorkshopID" json:"-"`
	ClientID          string         `gorm:"not null;index;size:36" json:"client_id"`
	Client            Client         `gorm:"foreignKey:ClientID" json:"client"`
	VehicleID         string         `gorm:"not null;index;size:36" json:"vehicle_id"`
	Vehicle           Vehicle        `gorm:"foreignKey:VehicleID" json:"vehicle"`
	ScheduledTime     time.Time      `gorm:"not null;index" json:"scheduled_time"`
	Status            string         `gorm:"not null;default:'scheduled'" json:"status"`
	Notes             string         `json:"notes"`
	Mileage           uint           `gorm:"not null;default:0" json:"mileage"` // odometer reading reported at the visit
	TotalCost         float64        `gorm:"not null;default:0" json:"total_cost"`
	EstimatedDuration int            `gorm:"not null;default:0" json:"estimated_duration"` // minutes, sum over repair items
	RepairItems       []RepairItem   `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE" json:"repair_items,omitempty"`
	Parts             []Part         `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE" json:"parts,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Appointment model
func (Appointment) TableName() string {
	return "appointments"
}

// BeforeCreate assigns a UUID primary key when none is set
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

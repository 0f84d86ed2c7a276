package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repair item statuses. The owning appointment flips to completed only once
// every one of its repair items is completed.
const (
	RepairItemPending    = "pending"
	RepairItemInProgress = "in_progress"
	RepairItemCompleted  = "completed"
)

// RepairItem is a single unit of work on an appointment's ledger.
type RepairItem struct {
	ID                string         `gorm:"primaryKey;size:36" json:"id"`
	AppointmentID     string         `gorm:"not null;index;size:36" json:"appointment_id"`
	Description       string         `gorm:"not null" json:"description"`
	Status            string         `gorm:"not null;default:'pending'" json:"status"`
	Cost              float64        `gorm:"not null;default:0" json:"cost"`
	EstimatedDuration int            `gorm:"not null;default:0" json:"estimated_duration"` // minutes
	ActualDuration    *int           `json:"actual_duration"`                              // minutes, set when the work is done
	Order             int            `gorm:"column:display_order;not null;default:0" json:"order"` // display sequence within the ledger
	CompletedByID     *string        `gorm:"index;size:36" json:"completed_by_id"`
	CompletedBy       *Employee      `gorm:"foreignKey:CompletedByID" json:"completed_by,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the RepairItem model
func (RepairItem) TableName() string {
	return "repair_items"
}

// BeforeCreate assigns a UUID primary key when none is set
func (r *RepairItem) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

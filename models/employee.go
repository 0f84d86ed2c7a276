package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee represents a mechanic or service advisor working at a workshop.
// Referenced by repair items to record who completed the work.
type Employee struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	WorkshopID string         `gorm:"not null;index;size:36" json:"workshop_id"`
	Workshop   Workshop       `gorm:"foreignKey:WorkshopID" json:"-"`
	FirstName  string         `gorm:"not null" json:"first_name"`
	LastName   string         `gorm:"not null" json:"last_name"`
	Role       string         `gorm:"not null;default:'mechanic'" json:"role"` // "mechanic" or "advisor"
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Employee model
func (Employee) TableName() string {
	return "employees"
}

// BeforeCreate assigns a UUID primary key when none is set
func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

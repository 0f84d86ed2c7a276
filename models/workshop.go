package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workshop represents a single auto-repair shop. Every client, employee and
// appointment belongs to exactly one workshop.
type Workshop struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Address   string         `json:"address"`
	Phone     string         `json:"phone"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Workshop model
func (Workshop) TableName() string {
	return "workshops"
}

// BeforeCreate assigns a UUID primary key when none is set
func (w *Workshop) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

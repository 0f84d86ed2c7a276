package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrainingData is a sample captured for the external repair-duration model.
// Rows are appended when completed work has an actual duration recorded;
// training itself happens outside this service.
type TrainingData struct {
	ID                  string    `gorm:"primaryKey;size:36" json:"id"`
	Description         string    `gorm:"not null" json:"description"`
	Make                string    `gorm:"size:50" json:"make"`
	Model               string    `gorm:"size:50" json:"model"`
	Year                int       `json:"year"`
	Engine              string    `gorm:"size:50" json:"engine"`
	ActualDurationHours float64   `gorm:"not null" json:"actual_duration_hours"`
	CreatedAt           time.Time `json:"created_at"`
}

// TableName specifies the table name for the TrainingData model
func (TrainingData) TableName() string {
	return "training_data"
}

// BeforeCreate assigns a UUID primary key when none is set
func (t *TrainingData) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

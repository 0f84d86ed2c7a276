package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client segments, ordered from most to least valuable. A nil segment means
// the client has never been classified.
const (
	SegmentA = "A"
	SegmentB = "B"
	SegmentC = "C"
	SegmentD = "D"
)

// ValidSegment reports whether s is one of the known segment labels.
func ValidSegment(s string) bool {
	switch s {
	case SegmentA, SegmentB, SegmentC, SegmentD:
		return true
	}
	return false
}

// Client represents a customer of a workshop. Segment and Discount are
// maintained by the segmentation pipeline and must always agree with the
// configured discount table.
type Client struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	WorkshopID string         `gorm:"not null;index;size:36" json:"workshop_id"`
	Workshop   Workshop       `gorm:"foreignKey:WorkshopID" json:"-"`
	FirstName  string         `gorm:"not null" json:"first_name"`
	LastName   string         `gorm:"not null" json:"last_name"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone"`
	Address    string         `json:"address"`
	Segment    *string        `gorm:"size:1" json:"segment"` // A, B, C or D; nil until first classification
	Discount   float64        `gorm:"not null;default:0" json:"discount"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Client model
func (Client) TableName() string {
	return "clients"
}

// BeforeCreate assigns a UUID primary key when none is set
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

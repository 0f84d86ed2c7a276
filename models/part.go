package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Part is a spare part on an appointment's ledger. CostService is the labor
// charge for fitting the part; it is tracked but intentionally excluded from
// TotalCost, matching the billing behavior the business signed off on.
type Part struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	AppointmentID string         `gorm:"not null;index;size:36" json:"appointment_id"`
	Name          string         `gorm:"not null;size:100" json:"name"`
	Description   string         `json:"description"`
	CostPart      float64        `gorm:"not null;default:0" json:"cost_part"`
	CostService   float64        `gorm:"not null;default:0" json:"cost_service"`
	Quantity      int            `gorm:"not null;default:1" json:"quantity"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Part model
func (Part) TableName() string {
	return "parts"
}

// BeforeCreate assigns a UUID primary key when none is set
func (p *Part) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// TotalCost returns the part's contribution to the appointment total.
// Quantities below one are treated as one so a bad write cannot zero out a
// line that was already billed.
func (p *Part) TotalCost() float64 {
	qty := p.Quantity
	if qty < 1 {
		qty = 1
	}
	cost := p.CostPart
	if cost < 0 {
		cost = 0
	}
	return cost * float64(qty)
}

package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pkowalczyk/autoshop-api/models"
)

// RepairItemInput carries the mutable fields of a repair item. Nil pointers
// on update mean "leave unchanged".
type RepairItemInput struct {
	Description       *string
	Cost              *float64
	EstimatedDuration *int
	ActualDuration    *int
	Status            *string
	Order             *int
	CompletedByID     *string
}

// PartInput carries the mutable fields of a part.
type PartInput struct {
	Name        *string
	Description *string
	CostPart    *float64
	CostService *float64
	Quantity    *int
}

func validRepairItemStatus(s string) bool {
	switch s {
	case models.RepairItemPending, models.RepairItemInProgress, models.RepairItemCompleted:
		return true
	}
	return false
}

// clampCost guards against negative amounts that slipped past edge
// validation. The ledger never stores a negative cost.
func clampCost(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// AddRepairItem appends a repair item to an appointment's ledger and runs
// the reaction chain.
func AddRepairItem(p *Pipeline, appointmentID string, input RepairItemInput) (*models.RepairItem, error) {
	item := models.RepairItem{
		AppointmentID: appointmentID,
		Status:        models.RepairItemPending,
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.Cost != nil {
		item.Cost = clampCost(*input.Cost)
	}
	if input.EstimatedDuration != nil && *input.EstimatedDuration > 0 {
		item.EstimatedDuration = *input.EstimatedDuration
	}
	if input.Order != nil {
		item.Order = *input.Order
	}
	if input.Status != nil {
		if !validRepairItemStatus(*input.Status) {
			return nil, fmt.Errorf("invalid repair item status %q", *input.Status)
		}
		item.Status = *input.Status
	}

	err := p.RunRepairItemWrite(appointmentID, func(tx *gorm.DB) error {
		if err := tx.First(&models.Appointment{}, "id = ?", appointmentID).Error; err != nil {
			return fmt.Errorf("appointment not found: %w", err)
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateRepairItem applies a partial update to a repair item and runs the
// reaction chain for its appointment.
func UpdateRepairItem(p *Pipeline, itemID string, input RepairItemInput) (*models.RepairItem, error) {
	var item models.RepairItem
	if err := p.db.First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Cost != nil {
		updates["cost"] = clampCost(*input.Cost)
	}
	if input.EstimatedDuration != nil {
		d := *input.EstimatedDuration
		if d < 0 {
			d = 0
		}
		updates["estimated_duration"] = d
	}
	if input.ActualDuration != nil {
		updates["actual_duration"] = *input.ActualDuration
	}
	if input.Order != nil {
		updates["display_order"] = *input.Order
	}
	if input.Status != nil {
		if !validRepairItemStatus(*input.Status) {
			return nil, fmt.Errorf("invalid repair item status %q", *input.Status)
		}
		updates["status"] = *input.Status
	}
	if input.CompletedByID != nil {
		updates["completed_by_id"] = *input.CompletedByID
	}

	err := p.RunRepairItemWrite(item.AppointmentID, func(tx *gorm.DB) error {
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.RepairItem{}).Where("id = ?", itemID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	if err := p.db.First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CompleteRepairItem marks a repair item as completed, recording who did the
// work and how long it actually took. Completing the last open item flips
// the appointment to completed and kicks off history materialization and
// client reclassification.
func CompleteRepairItem(p *Pipeline, itemID string, completedByID *string, actualDuration *int) (*models.RepairItem, error) {
	status := models.RepairItemCompleted
	return UpdateRepairItem(p, itemID, RepairItemInput{
		Status:         &status,
		CompletedByID:  completedByID,
		ActualDuration: actualDuration,
	})
}

// DeleteRepairItem removes a repair item from the ledger and runs the
// reaction chain so the appointment totals shrink accordingly.
func DeleteRepairItem(p *Pipeline, itemID string) error {
	var item models.RepairItem
	if err := p.db.First(&item, "id = ?", itemID).Error; err != nil {
		return err
	}
	return p.RunRepairItemWrite(item.AppointmentID, func(tx *gorm.DB) error {
		return tx.Delete(&models.RepairItem{}, "id = ?", itemID).Error
	})
}

// AddPart appends a part to an appointment's ledger and recomputes the cost.
func AddPart(p *Pipeline, appointmentID string, input PartInput) (*models.Part, error) {
	part := models.Part{
		AppointmentID: appointmentID,
		Quantity:      1,
	}
	if input.Name != nil {
		part.Name = *input.Name
	}
	if input.Description != nil {
		part.Description = *input.Description
	}
	if input.CostPart != nil {
		part.CostPart = clampCost(*input.CostPart)
	}
	if input.CostService != nil {
		part.CostService = clampCost(*input.CostService)
	}
	if input.Quantity != nil && *input.Quantity >= 1 {
		part.Quantity = *input.Quantity
	}

	err := p.RunPartWrite(appointmentID, func(tx *gorm.DB) error {
		if err := tx.First(&models.Appointment{}, "id = ?", appointmentID).Error; err != nil {
			return fmt.Errorf("appointment not found: %w", err)
		}
		return tx.Create(&part).Error
	})
	if err != nil {
		return nil, err
	}
	return &part, nil
}

// UpdatePart applies a partial update to a part and recomputes the cost.
func UpdatePart(p *Pipeline, partID string, input PartInput) (*models.Part, error) {
	var part models.Part
	if err := p.db.First(&part, "id = ?", partID).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.CostPart != nil {
		updates["cost_part"] = clampCost(*input.CostPart)
	}
	if input.CostService != nil {
		updates["cost_service"] = clampCost(*input.CostService)
	}
	if input.Quantity != nil {
		qty := *input.Quantity
		if qty < 1 {
			qty = 1
		}
		updates["quantity"] = qty
	}

	err := p.RunPartWrite(part.AppointmentID, func(tx *gorm.DB) error {
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Part{}).Where("id = ?", partID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	if err := p.db.First(&part, "id = ?", partID).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// DeletePart removes a part from the ledger and recomputes the cost.
func DeletePart(p *Pipeline, partID string) error {
	var part models.Part
	if err := p.db.First(&part, "id = ?", partID).Error; err != nil {
		return err
	}
	return p.RunPartWrite(part.AppointmentID, func(tx *gorm.DB) error {
		return tx.Delete(&models.Part{}, "id = ?", partID).Error
	})
}

// CancelAppointment moves a scheduled appointment to canceled. Appointments
// are canceled rather than deleted so the audit trail and the cancellation
// features of the owning client survive. Only scheduled appointments can be
// canceled; anything else is an unsupported transition.
func CancelAppointment(p *Pipeline, appointmentID string) error {
	unlock := p.lock(appointmentID)
	defer unlock()

	var appointment models.Appointment
	if err := p.db.First(&appointment, "id = ?", appointmentID).Error; err != nil {
		return err
	}
	if appointment.Status != models.AppointmentScheduled {
		return fmt.Errorf("%w: cannot cancel %s appointment", ErrInvalidTransition, appointment.Status)
	}
	return p.db.Model(&models.Appointment{}).Where("id = ?", appointmentID).
		Update("status", models.AppointmentCanceled).Error
}

// UpdateAppointmentMileage records the odometer reading reported at the
// visit. The vehicle itself is only advanced when the appointment completes.
func UpdateAppointmentMileage(p *Pipeline, appointmentID string, mileage uint) error {
	unlock := p.lock(appointmentID)
	defer unlock()

	if err := p.db.First(&models.Appointment{}, "id = ?", appointmentID).Error; err != nil {
		return err
	}
	return p.db.Model(&models.Appointment{}).Where("id = ?", appointmentID).
		Update("mileage", mileage).Error
}

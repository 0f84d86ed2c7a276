package services

import (
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/pkowalczyk/autoshop-api/config"
	"github.com/pkowalczyk/autoshop-api/models"
)

// LedgerTotal sums an appointment's ledger before discount: repair item costs
// plus part totals. Negative item costs are clamped to zero so a value that
// slipped past edge validation cannot corrupt the total.
func LedgerTotal(items []models.RepairItem, parts []models.Part) float64 {
	var total float64
	for _, item := range items {
		if item.Cost > 0 {
			total += item.Cost
		}
	}
	for i := range parts {
		total += parts[i].TotalCost()
	}
	return total
}

// ApplyDiscount reduces a total by a percentage and rounds to cents.
// Discounts outside [0,100] are clamped.
func ApplyDiscount(total, pct float64) float64 {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	discounted := total * (1 - pct/100)
	return math.Round(discounted*100) / 100
}

// AllItemsCompleted reports whether a non-empty repair item set is fully
// completed. An empty ledger never counts as completed.
func AllItemsCompleted(items []models.RepairItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if item.Status != models.RepairItemCompleted {
			return false
		}
	}
	return true
}

// RecomputeCost recalculates an appointment's total cost from its current
// ledger, applying the owning client's discount, and persists the result.
// Idempotent: rerunning against unchanged inputs writes the same value.
func RecomputeCost(db *gorm.DB, appointmentID string, discounts config.DiscountTable) (float64, error) {
	var appointment models.Appointment
	if err := db.Preload("RepairItems").Preload("Parts").Preload("Client").
		First(&appointment, "id = ?", appointmentID).Error; err != nil {
		return 0, fmt.Errorf("failed to load appointment for cost recompute: %w", err)
	}

	total := ApplyDiscount(LedgerTotal(appointment.RepairItems, appointment.Parts), appointment.Client.Discount)

	if err := db.Model(&models.Appointment{}).Where("id = ?", appointmentID).
		Update("total_cost", total).Error; err != nil {
		return 0, fmt.Errorf("failed to persist total cost: %w", err)
	}
	return total, nil
}

// RecomputeDuration recalculates an appointment's estimated duration as the
// sum of its repair items' estimated durations (minutes) and persists it.
func RecomputeDuration(db *gorm.DB, appointmentID string) (int, error) {
	var items []models.RepairItem
	if err := db.Where("appointment_id = ?", appointmentID).Find(&items).Error; err != nil {
		return 0, fmt.Errorf("failed to load repair items for duration recompute: %w", err)
	}

	var total int
	for _, item := range items {
		if item.EstimatedDuration > 0 {
			total += item.EstimatedDuration
		}
	}

	if err := db.Model(&models.Appointment{}).Where("id = ?", appointmentID).
		Update("estimated_duration", total).Error; err != nil {
		return 0, fmt.Errorf("failed to persist estimated duration: %w", err)
	}
	return total, nil
}

// RecomputeStatus flips a scheduled appointment to completed once its ledger
// is non-empty and every repair item is completed. Completed and canceled
// appointments are never touched: there is no automatic reversion, and a
// canceled visit stays canceled even if its items are later marked done.
// Returns true only when this call performed the transition.
func RecomputeStatus(db *gorm.DB, appointmentID string) (bool, error) {
	var appointment models.Appointment
	if err := db.Preload("RepairItems").First(&appointment, "id = ?", appointmentID).Error; err != nil {
		return false, fmt.Errorf("failed to load appointment for status recompute: %w", err)
	}

	if appointment.Status != models.AppointmentScheduled {
		return false, nil
	}
	if !AllItemsCompleted(appointment.RepairItems) {
		return false, nil
	}

	if err := db.Model(&models.Appointment{}).Where("id = ?", appointmentID).
		Update("status", models.AppointmentCompleted).Error; err != nil {
		return false, fmt.Errorf("failed to persist completed status: %w", err)
	}
	return true, nil
}

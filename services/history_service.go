package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pkowalczyk/autoshop-api/models"
)

// MaterializeServiceRecord creates the durable service-history entry for a
// completed appointment. The description is the appointment notes followed by
// each repair item's description in ledger order, newline-joined; the date is
// the date portion of the completion timestamp.
//
// At most one record exists per appointment: a second call is a no-op and
// returns the existing record with created=false. Vehicle mileage is advanced
// to the appointment's reported mileage, but never backwards.
func MaterializeServiceRecord(db *gorm.DB, appointmentID string, now time.Time) (*models.ServiceRecord, bool, error) {
	var appointment models.Appointment
	if err := db.Preload("RepairItems", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("display_order asc, created_at asc")
	}).Preload("Vehicle").First(&appointment, "id = ?", appointmentID).Error; err != nil {
		return nil, false, fmt.Errorf("failed to load appointment for materialization: %w", err)
	}

	if appointment.Status != models.AppointmentCompleted {
		return nil, false, nil
	}

	var existing models.ServiceRecord
	err := db.First(&existing, "appointment_id = ?", appointmentID).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to check for existing service record: %w", err)
	}

	record := models.ServiceRecord{
		VehicleID:     appointment.VehicleID,
		AppointmentID: appointment.ID,
		Date:          truncateToDate(now),
		Description:   buildServiceDescription(&appointment),
		Mileage:       appointment.Mileage,
	}
	if err := db.Create(&record).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create service record: %w", err)
	}

	if err := advanceVehicleMileage(db, &appointment.Vehicle, appointment.Mileage); err != nil {
		return nil, false, err
	}

	captureTrainingData(db, &appointment)

	return &record, true, nil
}

// advanceVehicleMileage moves the vehicle odometer forward to the reported
// reading. Lower readings are ignored: late or corrupt appointment data must
// never regress a vehicle's mileage.
func advanceVehicleMileage(db *gorm.DB, vehicle *models.Vehicle, reported uint) error {
	if reported <= vehicle.Mileage {
		if reported < vehicle.Mileage {
			logrus.WithFields(logrus.Fields{
				"vehicle_id": vehicle.ID,
				"current":    vehicle.Mileage,
				"reported":   reported,
			}).Warn("Ignoring mileage reading below current odometer value")
		}
		return nil
	}
	if err := db.Model(&models.Vehicle{}).Where("id = ?", vehicle.ID).
		Update("mileage", reported).Error; err != nil {
		return fmt.Errorf("failed to advance vehicle mileage: %w", err)
	}
	return nil
}

func buildServiceDescription(appointment *models.Appointment) string {
	var parts []string
	if appointment.Notes != "" {
		parts = append(parts, appointment.Notes)
	}
	for _, item := range appointment.RepairItems {
		parts = append(parts, item.Description)
	}
	return strings.Join(parts, "\n")
}

// captureTrainingData appends duration samples for the external repair-time
// model trainer. Failures only lose a sample, so they are logged and dropped.
func captureTrainingData(db *gorm.DB, appointment *models.Appointment) {
	for _, item := range appointment.RepairItems {
		if item.ActualDuration == nil || *item.ActualDuration <= 0 {
			continue
		}
		sample := models.TrainingData{
			Description:         item.Description,
			Make:                appointment.Vehicle.Make,
			Model:               appointment.Vehicle.Model,
			Year:                appointment.Vehicle.Year,
			Engine:              appointment.Vehicle.EngineType,
			ActualDurationHours: float64(*item.ActualDuration) / 60.0,
		}
		if err := db.Create(&sample).Error; err != nil {
			logrus.WithError(err).WithField("repair_item_id", item.ID).
				Warn("Failed to capture training data sample")
		}
	}
}

func truncateToDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pkowalczyk/autoshop-api/models"
)

// Feature names understood by the extractor. The classifier metadata decides
// which of these, and in what order, actually enter the vector.
const (
	FeatureRecency             = "recency"
	FeatureFrequency           = "frequency"
	FeatureMonetaryValue       = "monetary_value"
	FeatureAvgCost             = "avg_cost"
	FeatureCanceledCount       = "canceled_count"
	FeatureCancellationRate    = "cancellation_rate"
	FeatureTimeSinceFirstVisit = "time_since_first_visit"
	FeatureVehicleYear         = "vehicle_year"
	FeatureVehicleMileage      = "vehicle_mileage"
)

// Defaults for clients with no history or no vehicle on file.
const (
	defaultTimeSinceFirstVisit = 365
	defaultRecency             = 365
	defaultVehicleMileage      = 100000
	defaultVehicleYearOffset   = 10
)

// ClientFeatures is the computed, unordered feature set for one client.
type ClientFeatures map[string]float64

// ExtractClientFeatures derives the segmentation features for a client from
// its appointment history and vehicles, as of now. Degenerate data (no
// appointments, no vehicle) resolves to documented defaults, never an error.
func ExtractClientFeatures(db *gorm.DB, client *models.Client, now time.Time) (ClientFeatures, error) {
	var appointments []models.Appointment
	if err := db.Where("client_id = ?", client.ID).Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("failed to load appointment history: %w", err)
	}

	var (
		frequency     float64
		monetaryValue float64
		canceledCount float64
		lastCompleted time.Time
		firstVisit    time.Time
	)
	for _, a := range appointments {
		switch a.Status {
		case models.AppointmentCompleted:
			frequency++
			if a.TotalCost > 0 {
				monetaryValue += a.TotalCost
			}
			if a.ScheduledTime.After(lastCompleted) {
				lastCompleted = a.ScheduledTime
			}
			if firstVisit.IsZero() || a.ScheduledTime.Before(firstVisit) {
				firstVisit = a.ScheduledTime
			}
		case models.AppointmentCanceled:
			canceledCount++
		}
	}

	avgCost := 0.0
	if frequency > 0 {
		avgCost = monetaryValue / frequency
	}

	cancellationRate := 0.0
	if frequency+canceledCount > 0 {
		cancellationRate = canceledCount / (frequency + canceledCount)
	}

	// Clients without a completed visit are scored from account age rather
	// than a fixed ceiling, so a brand-new client does not look dormant.
	recency := daysBetween(client.CreatedAt, now)
	if !lastCompleted.IsZero() {
		recency = daysBetween(lastCompleted, now)
	}

	timeSinceFirst := float64(defaultTimeSinceFirstVisit)
	if !firstVisit.IsZero() {
		timeSinceFirst = daysBetween(firstVisit, now)
	}

	vehicleYear, vehicleMileage := clientVehicleFeatures(db, client.ID, now)

	return ClientFeatures{
		FeatureRecency:             recency,
		FeatureFrequency:           frequency,
		FeatureMonetaryValue:       monetaryValue,
		FeatureAvgCost:             avgCost,
		FeatureCanceledCount:       canceledCount,
		FeatureCancellationRate:    cancellationRate,
		FeatureTimeSinceFirstVisit: timeSinceFirst,
		FeatureVehicleYear:         vehicleYear,
		FeatureVehicleMileage:      vehicleMileage,
	}, nil
}

// clientVehicleFeatures reads year and mileage from the client's most
// recently added vehicle (ties broken by newest model year). Without a
// vehicle on file it falls back to a ten-year-old car at 100k.
func clientVehicleFeatures(db *gorm.DB, clientID string, now time.Time) (float64, float64) {
	var vehicle models.Vehicle
	err := db.Where("client_id = ?", clientID).
		Order("created_at desc, year desc").
		First(&vehicle).Error
	if err != nil {
		return float64(now.Year() - defaultVehicleYearOffset), defaultVehicleMileage
	}
	return float64(vehicle.Year), float64(vehicle.Mileage)
}

// BuildVector assembles the feature vector in the exact order the classifier
// metadata dictates. Features absent from the computed set fall back to their
// documented default; unknown names contribute zero. All values are clamped
// non-negative. This never fails: missing data must not break classification.
func BuildVector(features ClientFeatures, order []string, now time.Time) []float64 {
	vector := make([]float64, len(order))
	for i, name := range order {
		value, ok := features[name]
		if !ok {
			value = featureDefault(name, now)
		}
		if value < 0 {
			value = 0
		}
		vector[i] = value
	}
	return vector
}

func featureDefault(name string, now time.Time) float64 {
	switch name {
	case FeatureRecency:
		return defaultRecency
	case FeatureTimeSinceFirstVisit:
		return defaultTimeSinceFirstVisit
	case FeatureVehicleYear:
		return float64(now.Year() - defaultVehicleYearOffset)
	case FeatureVehicleMileage:
		return defaultVehicleMileage
	default:
		logrus.WithField("feature", name).Warn("Unknown feature in classifier metadata, defaulting to 0")
		return 0
	}
}

func daysBetween(from, to time.Time) float64 {
	days := to.Sub(from).Hours() / 24
	if days < 0 {
		return 0
	}
	return float64(int(days))
}

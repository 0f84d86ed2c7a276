package testutil

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pkowalczyk/autoshop-api/models"
)

// SetupTestDB opens an in-memory sqlite database with all models migrated.
// Connections are capped at one so concurrent test writes hit a single
// in-memory database instead of one per connection.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Workshop{},
		&models.Employee{},
		&models.Client{},
		&models.Vehicle{},
		&models.Appointment{},
		&models.RepairItem{},
		&models.Part{},
		&models.ServiceRecord{},
		&models.TrainingData{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// CreateTestWorkshop inserts a workshop
func CreateTestWorkshop(t *testing.T, db *gorm.DB) *models.Workshop {
	t.Helper()

	workshop := models.Workshop{
		Name:    "Test Workshop",
		Address: "1 Garage Lane",
	}
	if err := db.Create(&workshop).Error; err != nil {
		t.Fatalf("Failed to create test workshop: %v", err)
	}
	return &workshop
}

// CreateTestClient inserts a client with the given discount
func CreateTestClient(t *testing.T, db *gorm.DB, workshop *models.Workshop, discount float64) *models.Client {
	t.Helper()

	client := models.Client{
		WorkshopID: workshop.ID,
		FirstName:  "Jan",
		LastName:   "Kowalski",
		Email:      "jan@example.com",
		Discount:   discount,
	}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("Failed to create test client: %v", err)
	}
	return &client
}

// CreateTestVehicle inserts a vehicle for a client
func CreateTestVehicle(t *testing.T, db *gorm.DB, client *models.Client, year int, mileage uint) *models.Vehicle {
	t.Helper()

	vehicle := models.Vehicle{
		ClientID:   client.ID,
		Make:       "Toyota",
		Model:      "Corolla",
		Year:       year,
		EngineType: "petrol",
		Mileage:    mileage,
		// VIN carries a unique index
		VIN: strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:17],
	}
	if err := db.Create(&vehicle).Error; err != nil {
		t.Fatalf("Failed to create test vehicle: %v", err)
	}
	return &vehicle
}

// CreateTestAppointment inserts an appointment in the given status
func CreateTestAppointment(t *testing.T, db *gorm.DB, client *models.Client, vehicle *models.Vehicle, status string) *models.Appointment {
	t.Helper()

	appointment := models.Appointment{
		WorkshopID:    client.WorkshopID,
		ClientID:      client.ID,
		VehicleID:     vehicle.ID,
		ScheduledTime: time.Now().Add(-24 * time.Hour),
		Status:        status,
		Mileage:       vehicle.Mileage,
	}
	if err := db.Create(&appointment).Error; err != nil {
		t.Fatalf("Failed to create test appointment: %v", err)
	}
	return &appointment
}

// CreateTestRepairItem inserts a repair item on an appointment's ledger
func CreateTestRepairItem(t *testing.T, db *gorm.DB, appointment *models.Appointment, description string, cost float64, status string, order int) *models.RepairItem {
	t.Helper()

	item := models.RepairItem{
		AppointmentID: appointment.ID,
		Description:   description,
		Cost:          cost,
		Status:        status,
		Order:         order,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("Failed to create test repair item: %v", err)
	}
	return &item
}

// TestTreeNode mirrors the classifier artifact node layout
type TestTreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Label     string  `json:"label,omitempty"`
}

// ClassifierArtifact serializes a decision tree in the artifact format
func ClassifierArtifact(t *testing.T, version string, nodes []TestTreeNode) []byte {
	t.Helper()

	data, err := json.Marshal(map[string]interface{}{
		"version": version,
		"nodes":   nodes,
	})
	if err != nil {
		t.Fatalf("Failed to marshal classifier artifact: %v", err)
	}
	return data
}

// ClassifierMetadata serializes a metadata document with the given feature order
func ClassifierMetadata(t *testing.T, features []string) []byte {
	t.Helper()

	data, err := json.Marshal(map[string]interface{}{
		"features":    features,
		"accuracy":    0.91,
		"best_params": nil,
	})
	if err != nil {
		t.Fatalf("Failed to marshal classifier metadata: %v", err)
	}
	return data
}

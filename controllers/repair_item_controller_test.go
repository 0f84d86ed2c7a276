package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pkowalczyk/autoshop-api/config"
	"github.com/pkowalczyk/autoshop-api/models"
	"github.com/pkowalczyk/autoshop-api/services"
	"github.com/pkowalczyk/autoshop-api/tests/testutil"
)

// setupControllerTest wires an in-memory database and a fresh pipeline into
// the package singletons the controllers read from.
func setupControllerTest(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	config.SetDB(db)
	services.SetPipeline(services.NewPipeline(db, config.DefaultDiscounts()))
	services.SetClassifier(nil)
	t.Cleanup(func() {
		services.SetPipeline(nil)
		services.SetClassifier(nil)
	})
	return db
}

func setupRouter() *gin.Engine {
	router := gin.New()
	v1 := router.Group("/api/v1")
	{
		v1.POST("/appointments", CreateAppointment)
		v1.GET("/appointments/:id", GetAppointment)
		v1.POST("/appointments/:id/cancel", CancelAppointment)
		v1.DELETE("/appointments/:id", CancelAppointment)
		v1.PATCH("/appointments/:id/mileage", UpdateAppointmentMileage)
		v1.POST("/appointments/:id/repair-items", CreateRepairItem)
		v1.POST("/appointments/:id/parts", CreatePart)
		v1.PATCH("/repair-items/:id", UpdateRepairItem)
		v1.POST("/repair-items/:id/complete", CompleteRepairItem)
		v1.DELETE("/repair-items/:id", DeleteRepairItem)
		v1.PATCH("/parts/:id", UpdatePart)
		v1.DELETE("/parts/:id", DeletePart)
		v1.GET("/classifier/status", ClassifierStatus)
		v1.GET("/clients/:id/segment", GetClientSegment)
		v1.POST("/admin/segments/recompute", RecomputeSegments)
	}
	return router
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestCreateRepairItem(t *testing.T) {
	db := setupControllerTest(t)
	router := setupRouter()

	workshop := testutil.CreateTestWorkshop(t, db)
	client := testutil.CreateTestClient(t, db, workshop, 10)
	vehicle := testutil.CreateTestVehicle(t, db, client, 2018, 40000)
	appointment := testutil.CreateTestAppointment(t, db, client, vehicle, models.AppointmentScheduled)

	tests := []struct {
		name           string
		appointmentID  string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name:          "successfully create repair item",
			appointmentID: appointment.ID,
			requestBody: map[string]interface{}{
				"description":        "Replace brake pads",
				"cost":               100.0,
				"estimated_duration": "01:30",
				"order":              1,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:          "fail with missing description",
			appointmentID: appointment.ID,
			requestBody: map[string]interface{}{
				"cost": 100.0,
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:          "fail with negative cost",
			appointmentID: appointment.ID,
			requestBody: map[string]interface{}{
				"description": "Bad line",
				"cost":        -5.0,
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:          "fail with malformed duration",
			appointmentID: appointment.ID,
			requestBody: map[string]interface{}{
				"description":        "Replace brake pads",
				"cost":               100.0,
				"estimated_duration": "ninety minutes",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:          "fail with unknown appointment",
			appointmentID: "00000000-0000-0000-0000-000000000000",
			requestBody: map[string]interface{}{
				"description": "Replace brake pads",
				"cost":        100.0,
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "APPOINTMENT_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(router, http.MethodPost,
				"/api/v1/appointments/"+tt.appointmentID+"/repair-items", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			response := decodeResponse(t, w)
			if tt.expectedError != "" {
				assert.False(t, response["success"].(bool))
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
				return
			}
			assert.True(t, response["success"].(bool))
			data := response["data"].(map[string]interface{})
			assert.Equal(t, "Replace brake pads", data["description"])
			assert.Equal(t, float64(90), data["estimated_duration"])
			assert.Equal(t, "pending", data["status"])
		})
	}

	// The successful create must have recomputed the aggregate: 100 with
	// the client's 10% discount
	var stored models.Appointment
	require.NoError(t, db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, 90.0, stored.TotalCost)
	assert.Equal(t, 90, stored.EstimatedDuration)
}

func TestCompleteRepairItemFlipsAppointment(t *testing.T) {
	db := setupControllerTest(t)
	router := setupRouter()

	workshop := testutil.CreateTestWorkshop(t, db)
	client := testutil.CreateTestClient(t, db, workshop, 0)
	vehicle := testutil.CreateTestVehicle(t, db, client, 2018, 40000)
	appointment := testutil.CreateTestAppointment(t, db, client, vehicle, models.AppointmentScheduled)
	item := testutil.CreateTestRepairItem(t, db, appointment, "Oil change", 50, models.RepairItemPending, 1)

	w := performJSON(router, http.MethodPost,
		"/api/v1/repair-items/"+item.ID+"/complete",
		map[string]interface{}{"actual_duration": "00:45"})
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "completed", data["status"])
	assert.Equal(t, float64(45), data["actual_duration"])

	var stored models.Appointment
	require.NoError(t, db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, models.AppointmentCompleted, stored.Status)

	var records int64
	require.NoError(t, db.Model(&models.ServiceRecord{}).
		Where("appointment_id = ?", appointment.ID).Count(&records).Error)
	assert.Equal(t, int64(1), records)
}

func TestDeleteRepairItem(t *testing.T) {
	db := setupControllerTest(t)
	router := setupRouter()

	workshop := testutil.CreateTestWorkshop(t, db)
	client := testutil.CreateTestClient(t, db, workshop, 0)
	vehicle := testutil.CreateTestVehicle(t, db, client, 2018, 40000)
	appointment := testutil.CreateTestAppointment(t, db, client, vehicle, models.AppointmentScheduled)
	item := testutil.CreateTestRepairItem(t, db, appointment, "Oil change", 50, models.RepairItemPending, 1)

	w := performJSON(router, http.MethodDelete, "/api/v1/repair-items/"+item.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Appointment
	require.NoError(t, db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, 0.0, stored.TotalCost)

	w = performJSON(router, http.MethodDelete, "/api/v1/repair-items/"+item.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

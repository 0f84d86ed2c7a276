package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pkowalczyk/autoshop-api/config"
	"github.com/pkowalczyk/autoshop-api/models"
	"github.com/pkowalczyk/autoshop-api/services"
)

// CreateAppointmentRequest represents the request body for scheduling an appointment
type CreateAppointmentRequest struct {
	WorkshopID    string    `json:"workshop_id" binding:"required"`
	ClientID      string    `json:"client_id" binding:"required"`
	VehicleID     string    `json:"vehicle_id" binding:"required"`
	ScheduledTime time.Time `json:"scheduled_time" binding:"required"`
	Notes         string    `json:"notes"`
	Mileage       uint      `json:"mileage"`
}

// UpdateMileageRequest represents the request body for recording the odometer reading
type UpdateMileageRequest struct {
	Mileage uint `json:"mileage" binding:"required"`
}

// CreateAppointment handles POST /api/v1/appointments - schedules a new appointment
func CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()

	// The vehicle must belong to the client being booked
	var vehicle models.Vehicle
	if err := db.First(&vehicle, "id = ?", req.VehicleID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VEHICLE_NOT_FOUND",
				"message": "Vehicle not found",
			},
		})
		return
	}
	if vehicle.ClientID != req.ClientID {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VEHICLE_CLIENT_MISMATCH",
				"message": "Vehicle does not belong to the given client",
			},
		})
		return
	}

	appointment := models.Appointment{
		WorkshopID:    req.WorkshopID,
		ClientID:      req.ClientID,
		VehicleID:     req.VehicleID,
		ScheduledTime: req.ScheduledTime,
		Status:        models.AppointmentScheduled,
		Notes:         req.Notes,
		Mileage:       req.Mileage,
	}
	if err := db.Create(&appointment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create appointment",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    appointment,
	})
}

// GetAppointment handles GET /api/v1/appointments/:id - returns an appointment with its ledger
func GetAppointment(c *gin.Context) {
	db := config.GetDB()

	var appointment models.Appointment
	err := db.Preload("RepairItems", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("display_order asc, created_at asc")
	}).Preload("Parts").Preload("Client").Preload("Vehicle").
		First(&appointment, "id = ?", c.Param("id")).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "APPOINTMENT_NOT_FOUND",
				"message": "Appointment not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    appointment,
	})
}

// CancelAppointment handles POST /api/v1/appointments/:id/cancel and
// DELETE /api/v1/appointments/:id - both cancel rather than remove, so the
// visit stays on record.
func CancelAppointment(c *gin.Context) {
	err := services.CancelAppointment(services.GetPipeline(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "APPOINTMENT_NOT_FOUND",
					"message": "Appointment not found",
				},
			})
		case errors.Is(err, services.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TRANSITION",
					"message": "Only scheduled appointments can be canceled",
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to cancel appointment",
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Appointment canceled",
	})
}

// UpdateAppointmentMileage handles PATCH /api/v1/appointments/:id/mileage -
// records the odometer reading reported at the visit
func UpdateAppointmentMileage(c *gin.Context) {
	var req UpdateMileageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	err := services.UpdateAppointmentMileage(services.GetPipeline(), c.Param("id"), req.Mileage)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "APPOINTMENT_NOT_FOUND",
					"message": "Appointment not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update mileage",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Mileage updated",
	})
}

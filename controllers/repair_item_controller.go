package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pkowalczyk/autoshop-api/services"
	"github.com/pkowalczyk/autoshop-api/utils"
)

// CreateRepairItemRequest represents the request body for adding a repair item.
// Durations travel as "HH:MM" strings.
type CreateRepairItemRequest struct {
	Description       string   `json:"description" binding:"required"`
	Cost              *float64 `json:"cost" binding:"required,gte=0"`
	EstimatedDuration string   `json:"estimated_duration"`
	Order             *int     `json:"order"`
}

// UpdateRepairItemRequest represents the request body for a partial repair item update
type UpdateRepairItemRequest struct {
	Description       *string  `json:"description"`
	Cost              *float64 `json:"cost"`
	Status            *string  `json:"status"`
	EstimatedDuration *string  `json:"estimated_duration"`
	ActualDuration    *string  `json:"actual_duration"`
	Order             *int     `json:"order"`
}

// CompleteRepairItemRequest represents the request body for completing a repair item
type CompleteRepairItemRequest struct {
	CompletedByID  *string `json:"completed_by_id"`
	ActualDuration *string `json:"actual_duration"`
}

// CreateRepairItem handles POST /api/v1/appointments/:id/repair-items
func CreateRepairItem(c *gin.Context) {
	var req CreateRepairItemRequest
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

	input := services.RepairItemInput{
		Description: &req.Description,
		Cost:        req.Cost,
		Order:       req.Order,
	}
	if req.EstimatedDuration != "" {
		minutes, err := utils.ParseHHMM(req.EstimatedDuration)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": err.Error(),
				},
			})
			return
		}
		input.EstimatedDuration = &minutes
	}

	item, err := services.AddRepairItem(services.GetPipeline(), c.Param("id"), input)
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
				"message": "Failed to create repair item",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    item,
	})
}

// UpdateRepairItem handles PATCH /api/v1/repair-items/:id
func UpdateRepairItem(c *gin.Context) {
	var req UpdateRepairItemRequest
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

	input := services.RepairItemInput{
		Description: req.Description,
		Cost:        req.Cost,
		Status:      req.Status,
		Order:       req.Order,
	}
	if req.EstimatedDuration != nil {
		minutes, err := utils.ParseHHMM(*req.EstimatedDuration)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": err.Error(),
				},
			})
			return
		}
		input.EstimatedDuration = &minutes
	}
	if req.ActualDuration != nil {
		minutes, err := utils.ParseHHMM(*req.ActualDuration)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": err.Error(),
				},
			})
			return
		}
		input.ActualDuration = &minutes
	}

	item, err := services.UpdateRepairItem(services.GetPipeline(), c.Param("id"), input)
	if err != nil {
		respondRepairItemError(c, err, "Failed to update repair item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// CompleteRepairItem handles POST /api/v1/repair-items/:id/complete - marks
// the work done; completing the last open item completes the appointment and
// triggers history materialization and client reclassification.
func CompleteRepairItem(c *gin.Context) {
	var req CompleteRepairItemRequest
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

	var actualDuration *int
	if req.ActualDuration != nil {
		minutes, err := utils.ParseHHMM(*req.ActualDuration)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": err.Error(),
				},
			})
			return
		}
		actualDuration = &minutes
	}

	item, err := services.CompleteRepairItem(services.GetPipeline(), c.Param("id"), req.CompletedByID, actualDuration)
	if err != nil {
		respondRepairItemError(c, err, "Failed to complete repair item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// DeleteRepairItem handles DELETE /api/v1/repair-items/:id
func DeleteRepairItem(c *gin.Context) {
	if err := services.DeleteRepairItem(services.GetPipeline(), c.Param("id")); err != nil {
		respondRepairItemError(c, err, "Failed to delete repair item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Repair item deleted",
	})
}

func respondRepairItemError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REPAIR_ITEM_NOT_FOUND",
				"message": "Repair item not found",
			},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "DATABASE_ERROR",
			"message": fallback,
		},
	})
}

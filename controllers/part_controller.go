package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pkowalczyk/autoshop-api/services"
)

// CreatePartRequest represents the request body for adding a part
type CreatePartRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	CostPart    *float64 `json:"cost_part" binding:"required,gte=0"`
	CostService *float64 `json:"cost_service"`
	Quantity    *int     `json:"quantity" binding:"omitempty,gte=1"`
}

// UpdatePartRequest represents the request body for a partial part update
type UpdatePartRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	CostPart    *float64 `json:"cost_part"`
	CostService *float64 `json:"cost_service"`
	Quantity    *int     `json:"quantity"`
}

// CreatePart handles POST /api/v1/appointments/:id/parts
func CreatePart(c *gin.Context) {
	var req CreatePartRequest
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

	part, err := services.AddPart(services.GetPipeline(), c.Param("id"), services.PartInput{
		Name:        &req.Name,
		Description: &req.Description,
		CostPart:    req.CostPart,
		CostService: req.CostService,
		Quantity:    req.Quantity,
	})
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
				"message": "Failed to create part",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    part,
	})
}

// UpdatePart handles PATCH /api/v1/parts/:id
func UpdatePart(c *gin.Context) {
	var req UpdatePartRequest
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

	part, err := services.UpdatePart(services.GetPipeline(), c.Param("id"), services.PartInput{
		Name:        req.Name,
		Description: req.Description,
		CostPart:    req.CostPart,
		CostService: req.CostService,
		Quantity:    req.Quantity,
	})
	if err != nil {
		respondPartError(c, err, "Failed to update part")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    part,
	})
}

// DeletePart handles DELETE /api/v1/parts/:id
func DeletePart(c *gin.Context) {
	if err := services.DeletePart(services.GetPipeline(), c.Param("id")); err != nil {
		respondPartError(c, err, "Failed to delete part")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Part deleted",
	})
}

func respondPartError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PART_NOT_FOUND",
				"message": "Part not found",
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

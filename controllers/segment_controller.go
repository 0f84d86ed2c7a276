package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pkowalczyk/autoshop-api/config"
	"github.com/pkowalczyk/autoshop-api/models"
	"github.com/pkowalczyk/autoshop-api/services"
)

// ClassifierStatus handles GET /api/v1/classifier/status - reports whether a
// segmentation model is loaded and which feature schema it expects.
func ClassifierStatus(c *gin.Context) {
	classifier := services.GetClassifier()
	if classifier == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"loaded":  false,
				"message": "No classifier artifact loaded; clients keep their current segments",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"loaded":   true,
			"version":  classifier.Version(),
			"features": classifier.FeatureOrder(),
		},
	})
}

// GetClientSegment handles GET /api/v1/clients/:id/segment
func GetClientSegment(c *gin.Context) {
	db := config.GetDB()

	var client models.Client
	if err := db.First(&client, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLIENT_NOT_FOUND",
				"message": "Client not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"client_id": client.ID,
			"segment":   client.Segment,
			"discount":  client.Discount,
		},
	})
}

// RecomputeSegments handles POST /api/v1/admin/segments/recompute - reruns
// segmentation across all clients, typically after a new model rollout.
func RecomputeSegments(c *gin.Context) {
	cfg := config.GetConfig()
	updated, err := services.ReclassifyAll(config.GetDB(), cfg.Discounts, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrClassifierUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CLASSIFIER_UNAVAILABLE",
					"message": "No classifier artifact loaded",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SEGMENTATION_ERROR",
				"message": "Batch reclassification failed",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"clients_updated": updated,
		},
	})
}

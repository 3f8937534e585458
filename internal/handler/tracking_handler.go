package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rainelab/companion-backend-go/internal/models"
	"github.com/rainelab/companion-backend-go/internal/repository"
	"github.com/rainelab/companion-backend-go/internal/service"
	"github.com/rainelab/companion-backend-go/pkg/response"
)

// TrackingHandler handles HTTP requests for location ingestion and history
type TrackingHandler struct {
	tracking  *service.TrackingService
	predictor *service.PredictionService
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(tracking *service.TrackingService, predictor *service.PredictionService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking, predictor: predictor}
}

// Track handles POST /api/v1/location/track
func (h *TrackingHandler) Track(c *gin.Context) {
	var req models.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.tracking.RecordLocation(c.Request.Context(), req, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCoordinate) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// History handles GET /api/v1/location/history
func (h *TrackingHandler) History(c *gin.Context) {
	hoursStr := c.DefaultQuery("hours", "24")
	hours, err := strconv.Atoi(hoursStr)
	if err != nil {
		response.BadRequest(c, "Invalid hours parameter")
		return
	}

	samples, err := h.tracking.History(hours, time.Now())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.List(c, samples, len(samples))
}

// Purge handles DELETE /api/v1/location/history
func (h *TrackingHandler) Purge(c *gin.Context) {
	daysStr := c.DefaultQuery("days", "30")
	days, err := strconv.Atoi(daysStr)
	if err != nil {
		response.BadRequest(c, "Invalid days parameter")
		return
	}

	deleted, err := h.tracking.Purge(days, time.Now())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"deleted": deleted})
}

// Predict handles GET /api/v1/predict
func (h *TrackingHandler) Predict(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		response.BadRequest(c, "Invalid latitude parameter")
		return
	}
	lon, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		response.BadRequest(c, "Invalid longitude parameter")
		return
	}

	prediction, err := h.predictor.Predict(lat, lon, time.Now())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"predictedDestination": prediction})
}

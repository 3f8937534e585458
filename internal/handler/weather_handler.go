package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rainelab/companion-backend-go/internal/weather"
	"github.com/rainelab/companion-backend-go/pkg/response"
)

// WeatherHandler exposes current conditions for a coordinate
type WeatherHandler struct {
	weather weather.Source
}

// NewWeatherHandler creates a new weather handler
func NewWeatherHandler(src weather.Source) *WeatherHandler {
	return &WeatherHandler{weather: src}
}

// Current handles GET /api/v1/weather/current
func (h *WeatherHandler) Current(c *gin.Context) {
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

	sample, err := h.weather.Current(c.Request.Context(), lat, lon)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, sample)
}

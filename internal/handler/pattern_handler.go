package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rainelab/companion-backend-go/internal/repository"
	"github.com/rainelab/companion-backend-go/internal/service"
	"github.com/rainelab/companion-backend-go/pkg/response"
)

// PatternHandler handles HTTP requests for pattern recognition and places
type PatternHandler struct {
	patterns *service.PatternService
	places   *repository.PlaceRepository
}

// NewPatternHandler creates a new pattern handler
func NewPatternHandler(patterns *service.PatternService, places *repository.PlaceRepository) *PatternHandler {
	return &PatternHandler{patterns: patterns, places: places}
}

// Analyze handles POST /api/v1/patterns/analyze
func (h *PatternHandler) Analyze(c *gin.Context) {
	discovered, err := h.patterns.AnalyzePatterns(time.Now())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.List(c, discovered, len(discovered))
}

// Places handles GET /api/v1/places
func (h *PatternHandler) Places(c *gin.Context) {
	places, err := h.places.All()
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.List(c, places, len(places))
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rainelab/companion-backend-go/internal/config"
	"github.com/rainelab/companion-backend-go/internal/handler"
	"github.com/rainelab/companion-backend-go/internal/middleware"
)

// Handlers groups the HTTP handlers wired by the composition root.
type Handlers struct {
	Tracking *handler.TrackingHandler
	Pattern  *handler.PatternHandler
	Weather  *handler.WeatherHandler
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Tracking pings arrive every few seconds per device.
	limiter := middleware.NewRateLimiter(120, time.Minute)
	r.Use(middleware.RateLimit(limiter))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Companion Backend API is running",
		})
	})

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTSecret, cfg.AuthEnabled))
	{
		location := api.Group("/location")
		{
			location.POST("/track", h.Tracking.Track)
			location.GET("/history", h.Tracking.History)
			location.DELETE("/history", h.Tracking.Purge)
		}

		patterns := api.Group("/patterns")
		{
			patterns.POST("/analyze", h.Pattern.Analyze)
		}

		api.GET("/places", h.Pattern.Places)
		api.GET("/predict", h.Tracking.Predict)

		weather := api.Group("/weather")
		{
			weather.GET("/current", h.Weather.Current)
		}
	}

	return r
}

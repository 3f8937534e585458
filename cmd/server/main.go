package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rainelab/companion-backend-go/internal/agenda"
	"github.com/rainelab/companion-backend-go/internal/api"
	"github.com/rainelab/companion-backend-go/internal/config"
	"github.com/rainelab/companion-backend-go/internal/database"
	"github.com/rainelab/companion-backend-go/internal/geocode"
	"github.com/rainelab/companion-backend-go/internal/handler"
	"github.com/rainelab/companion-backend-go/internal/notify"
	"github.com/rainelab/companion-backend-go/internal/repository"
	"github.com/rainelab/companion-backend-go/internal/scheduler"
	"github.com/rainelab/companion-backend-go/internal/service"
	"github.com/rainelab/companion-backend-go/internal/weather"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化数据库
	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	// Repositories
	locationRepo := repository.NewLocationRepository(db)
	placeRepo := repository.NewPlaceRepository(db)

	// Collaborators
	weatherClient := weather.NewClient(cfg.Weather.BaseURL, cfg.WeatherTimeout())
	geocoder := geocode.NewGoogleGeocoder(cfg.GoogleMapsAPIKey)
	notifier := notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Enabled)
	agendaSource := agenda.NewHTTPSource(cfg.Scanner.CalendarURL, cfg.Scanner.TasksURL)

	// Services
	patternService := service.NewPatternService(locationRepo, placeRepo)
	predictionService := service.NewPredictionService(placeRepo)
	trackingService := service.NewTrackingService(
		locationRepo, patternService, predictionService,
		weatherClient, notifier,
		cfg.Tracking.ClusterTrigger, cfg.WeatherTimeout(), cfg.AlertCooldown(),
	)

	// Reminder scanner
	morningSpec, err := cfg.MorningSummarySpec()
	if err != nil {
		log.Fatal("Invalid morning summary time:", err)
	}
	scanner := scheduler.NewScanner(agendaSource, agendaSource, weatherClient, geocoder, notifier, scheduler.Options{
		Interval:           time.Duration(cfg.Scanner.IntervalMinutes) * time.Minute,
		ReminderWindow:     cfg.ReminderWindow(),
		EventLookaheadDays: cfg.Scanner.EventLookaheadDays,
		TaskLookaheadDays:  cfg.Scanner.TaskLookaheadDays,
		MorningSummarySpec: morningSpec,
		HomeLatitude:       cfg.HomeLatitude,
		HomeLongitude:      cfg.HomeLongitude,
	})
	if err := scanner.Start(); err != nil {
		log.Fatal("Failed to start reminder scanner:", err)
	}

	// Let an in-flight scan finish before exiting.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down, waiting for in-flight scan...")
		<-scanner.Stop().Done()
		db.Close()
		os.Exit(0)
	}()

	// 初始化路由
	router := api.SetupRouter(cfg, api.Handlers{
		Tracking: handler.NewTrackingHandler(trackingService, predictionService),
		Pattern:  handler.NewPatternHandler(patternService, placeRepo),
		Weather:  handler.NewWeatherHandler(weatherClient),
	})

	// 启动服务器
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Port        string `yaml:"port"`
	DBPath      string `yaml:"db_path"`
	JWTSecret   string `yaml:"jwt_secret"`
	AuthEnabled bool   `yaml:"auth_enabled"`

	// Home coordinates, used as the fallback location for reminders whose
	// event has no geocodable address.
	HomeLatitude  float64 `yaml:"home_latitude"`
	HomeLongitude float64 `yaml:"home_longitude"`

	Tracking TrackingConfig `yaml:"tracking"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Weather  WeatherConfig  `yaml:"weather"`
	Notify   NotifyConfig   `yaml:"notify"`

	GoogleMapsAPIKey string `yaml:"google_maps_api_key"`
}

// TrackingConfig controls the location ingestion pipeline.
type TrackingConfig struct {
	// ClusterTrigger is the sample count at which ingestion starts running
	// pattern recognition automatically.
	ClusterTrigger int `yaml:"cluster_trigger"`
	// AlertCooldownMinutes suppresses repeated proactive alerts for the same
	// predicted place within the window. 0 alerts on every evaluation.
	AlertCooldownMinutes int `yaml:"alert_cooldown_minutes"`
	// RetentionDays is the default ledger retention for the purge endpoint.
	RetentionDays int `yaml:"retention_days"`
}

// ScannerConfig controls the reminder scanner schedule and windows.
type ScannerConfig struct {
	IntervalMinutes       int    `yaml:"interval_minutes"`
	ReminderWindowMinutes int    `yaml:"reminder_window_minutes"`
	EventLookaheadDays    int    `yaml:"event_lookahead_days"`
	TaskLookaheadDays     int    `yaml:"task_lookahead_days"`
	MorningSummaryTime    string `yaml:"morning_summary_time"` // "HH:MM"
	CalendarURL           string `yaml:"calendar_url"`
	TasksURL              string `yaml:"tasks_url"`
}

// WeatherConfig controls the weather client.
type WeatherConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// NotifyConfig controls outgoing notifications.
type NotifyConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// Load 加载配置: config.yaml first, environment variables override.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	cfg := defaults()

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	applyEnv(cfg)
	fillDefaults(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		Port:      ":8080",
		DBPath:    "./data/companion.db",
		JWTSecret: "your-secret-key-change-in-production",
		Tracking: TrackingConfig{
			ClusterTrigger:       20,
			AlertCooldownMinutes: 30,
			RetentionDays:        30,
		},
		Scanner: ScannerConfig{
			IntervalMinutes:       5,
			ReminderWindowMinutes: 15,
			EventLookaheadDays:    3,
			TaskLookaheadDays:     2,
			MorningSummaryTime:    "07:00",
		},
		Weather: WeatherConfig{
			BaseURL:        "https://api.open-meteo.com/v1/forecast",
			TimeoutSeconds: 10,
		},
		Notify: NotifyConfig{Enabled: true},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		cfg.AuthEnabled = v == "1" || v == "true"
	}
	if v := os.Getenv("HOME_LATITUDE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.HomeLatitude = f
		}
	}
	if v := os.Getenv("HOME_LONGITUDE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.HomeLongitude = f
		}
	}
	if v := os.Getenv("GOOGLE_MAPS_API_KEY"); v != "" {
		cfg.GoogleMapsAPIKey = v
	}
	if v := os.Getenv("NOTIFY_WEBHOOK_URL"); v != "" {
		cfg.Notify.WebhookURL = v
	}
	if v := os.Getenv("CALENDAR_URL"); v != "" {
		cfg.Scanner.CalendarURL = v
	}
	if v := os.Getenv("TASKS_URL"); v != "" {
		cfg.Scanner.TasksURL = v
	}
}

// fillDefaults backstops zero values that a partial config.yaml may have
// left behind.
func fillDefaults(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = ":8080"
	}
	if cfg.Port[0] != ':' {
		cfg.Port = ":" + cfg.Port
	}
	if cfg.Tracking.ClusterTrigger <= 0 {
		cfg.Tracking.ClusterTrigger = 20
	}
	if cfg.Tracking.RetentionDays <= 0 {
		cfg.Tracking.RetentionDays = 30
	}
	if cfg.Scanner.IntervalMinutes <= 0 {
		cfg.Scanner.IntervalMinutes = 5
	}
	if cfg.Scanner.ReminderWindowMinutes <= 0 {
		cfg.Scanner.ReminderWindowMinutes = 15
	}
	if cfg.Scanner.EventLookaheadDays <= 0 {
		cfg.Scanner.EventLookaheadDays = 3
	}
	if cfg.Scanner.TaskLookaheadDays <= 0 {
		cfg.Scanner.TaskLookaheadDays = 2
	}
	if cfg.Scanner.MorningSummaryTime == "" {
		cfg.Scanner.MorningSummaryTime = "07:00"
	}
	if cfg.Weather.BaseURL == "" {
		cfg.Weather.BaseURL = "https://api.open-meteo.com/v1/forecast"
	}
	if cfg.Weather.TimeoutSeconds <= 0 {
		cfg.Weather.TimeoutSeconds = 10
	}
}

// AlertCooldown returns the proactive alert cooldown as a duration.
func (c *Config) AlertCooldown() time.Duration {
	return time.Duration(c.Tracking.AlertCooldownMinutes) * time.Minute
}

// ReminderWindow returns the reminder eligibility window as a duration.
func (c *Config) ReminderWindow() time.Duration {
	return time.Duration(c.Scanner.ReminderWindowMinutes) * time.Minute
}

// WeatherTimeout returns the bounded timeout for external weather calls.
func (c *Config) WeatherTimeout() time.Duration {
	return time.Duration(c.Weather.TimeoutSeconds) * time.Second
}

// MorningSummarySpec returns the cron spec for the daily morning summary.
func (c *Config) MorningSummarySpec() (string, error) {
	var hour, min int
	if _, err := fmt.Sscanf(c.Scanner.MorningSummaryTime, "%d:%d", &hour, &min); err != nil {
		return "", fmt.Errorf("invalid morning_summary_time %q: %w", c.Scanner.MorningSummaryTime, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return "", fmt.Errorf("invalid morning_summary_time %q", c.Scanner.MorningSummaryTime)
	}
	return fmt.Sprintf("%d %d * * *", min, hour), nil
}

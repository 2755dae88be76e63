package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"qcview/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	API     APIConfig
	Data    DataConfig
	Charts  ChartConfig
	Logging LoggingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string
	GinMode      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// APIConfig holds settings for the headless JSON API server
type APIConfig struct {
	Port string
}

// DataConfig holds workbook ingestion settings
type DataConfig struct {
	ExcelFile          string // optional workbook loaded at startup
	MaxUploadMB        int
	MaxConcurrentLoads int
}

// ChartConfig holds chart drawing settings
type ChartConfig struct {
	Width    int
	Height   int
	Surfaces []string // slot ids that have a drawing surface on the page
	Font     string   // optional TTF with Hangul glyphs for chart labels
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// DefaultSurfaces are the chart slot ids present on the index page
var DefaultSurfaces = []string{"chartTensile", "chartElongation", "chartModulus"}

// MaxUploadBytes returns the upload limit in bytes
func (d DataConfig) MaxUploadBytes() int64 {
	return int64(d.MaxUploadMB) * 1024 * 1024
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:  *loadServerConfig(),
		API:     APIConfig{Port: getEnvOrDefault("API_PORT", "8081")},
		Data:    *loadDataConfig(),
		Charts:  *loadChartConfig(),
		Logging: LoggingConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:         getEnvOrDefault("PORT", "8080"),
		GinMode:      getEnvOrDefault("GIN_MODE", "release"),
		ReadTimeout:  getEnvDurationOrDefault("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvDurationOrDefault("WRITE_TIMEOUT", 30*time.Second),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		ExcelFile:          getEnvOrDefault("EXCEL_FILE", ""),
		MaxUploadMB:        getEnvIntOrDefault("MAX_UPLOAD_MB", 50),
		MaxConcurrentLoads: getEnvIntOrDefault("MAX_CONCURRENT_LOADS", 2),
	}
}

func loadChartConfig() *ChartConfig {
	surfaces := DefaultSurfaces
	if raw, ok := os.LookupEnv("CHART_SURFACES"); ok {
		surfaces = splitList(raw)
	}
	return &ChartConfig{
		Width:    getEnvIntOrDefault("CHART_WIDTH", 800),
		Height:   getEnvIntOrDefault("CHART_HEIGHT", 360),
		Surfaces: surfaces,
		Font:     getEnvOrDefault("CHART_FONT", ""),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Data.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Data.MaxConcurrentLoads <= 0 {
		return errors.ConfigInvalid("MAX_CONCURRENT_LOADS must be positive")
	}
	if config.Charts.Width < 100 || config.Charts.Height < 100 {
		return errors.ConfigInvalid("chart dimensions must be at least 100x100")
	}
	for _, s := range config.Charts.Surfaces {
		if !isKnownSurface(s) {
			return errors.ConfigInvalid("unknown chart surface: " + s)
		}
	}
	return nil
}

func isKnownSurface(id string) bool {
	for _, s := range DefaultSurfaces {
		if s == id {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

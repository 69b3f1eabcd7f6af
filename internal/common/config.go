package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Raster   RasterConfig
	Region   RegionConfig
	Extract  ExtractConfig
	LLM      LLMConfig
	Artifact ArtifactConfig
	Dataset  DatasetConfig
}

// RasterConfig holds page rendering configuration
type RasterConfig struct {
	DPI       int
	PageIndex int // table page within each report; the publisher keeps it stable per year
}

// RegionConfig holds marker detection and enhancement configuration.
// Hue is degrees 0-360, saturation and value are 0-1. Margins are in
// pixels at 600 DPI and are rescaled for other resolutions.
type RegionConfig struct {
	HueLo, HueHi float64
	SatLo, SatHi float64
	ValLo, ValHi float64
	MarginTop    int
	MarginBottom int
	MarginSide   int
	MinClusterPx int // noise floor: marker clusters smaller than this are specks
}

// ExtractConfig holds the retry state machine configuration
type ExtractConfig struct {
	RetryBudget int
	Workers     int
	Timeout     time.Duration
}

// LLMConfig holds the extraction service configuration
type LLMConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// ArtifactConfig holds the enhanced-image store configuration
type ArtifactConfig struct {
	Dir string
}

// DatasetConfig holds dataset persistence configuration
type DatasetConfig struct {
	SQLitePath string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Raster: RasterConfig{
			DPI:       getEnvAsInt("RENDER_DPI", 300),
			PageIndex: getEnvAsInt("TABLE_PAGE_INDEX", 3),
		},
		Region: RegionConfig{
			HueLo:        getEnvAsFloat("MARKER_HUE_LO", 80),
			HueHi:        getEnvAsFloat("MARKER_HUE_HI", 100),
			SatLo:        getEnvAsFloat("MARKER_SAT_LO", 0),
			SatHi:        getEnvAsFloat("MARKER_SAT_HI", 0.12),
			ValLo:        getEnvAsFloat("MARKER_VAL_LO", 0.82),
			ValHi:        getEnvAsFloat("MARKER_VAL_HI", 1.0),
			MarginTop:    getEnvAsInt("REGION_MARGIN_TOP", 360),
			MarginBottom: getEnvAsInt("REGION_MARGIN_BOTTOM", 130),
			MarginSide:   getEnvAsInt("REGION_MARGIN_SIDE", 40),
			MinClusterPx: getEnvAsInt("REGION_MIN_CLUSTER_PX", 25),
		},
		Extract: ExtractConfig{
			RetryBudget: getEnvAsInt("EXTRACT_RETRY_BUDGET", 3),
			Workers:     getEnvAsInt("EXTRACT_WORKERS", 4),
			Timeout:     getEnvAsDuration("EXTRACT_TIMEOUT", 3*time.Minute),
		},
		LLM: LLMConfig{
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			APIKey:  getEnv("GOOGLE_API_KEY", ""),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Artifact: ArtifactConfig{
			Dir: getEnv("ARTIFACT_DIR", "./data/enhanced"),
		},
		Dataset: DatasetConfig{
			SQLitePath: getEnv("DATASET_DB_PATH", "./data/lassa.db"),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GOOGLE_API_KEY is required", ErrInvalidInput)
	}
	if c.Raster.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "RENDER_DPI must be positive", ErrInvalidInput)
	}
	if c.Extract.RetryBudget < 1 {
		return NewAppError("CONFIG_ERROR", "EXTRACT_RETRY_BUDGET must be at least 1", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string

	// ModelDir is the local directory holding the classifier artifact and
	// its metadata file. When AWSS3Bucket is set the artifact pair is
	// fetched from S3 into this directory at startup instead.
	ModelDir          string
	ModelArtifactName string
	ModelMetadataName string

	// Discounts is the single segment -> discount-percentage table used by
	// both the appointment cost recompute and the client segment update.
	Discounts DiscountTable
}

// DiscountTable maps a client segment to its discount percentage.
type DiscountTable map[string]float64

// DefaultDiscounts is the canonical discount table: segment A gets the
// largest discount, D gets none.
func DefaultDiscounts() DiscountTable {
	return DiscountTable{
		"A": 20.0,
		"B": 10.0,
		"C": 5.0,
		"D": 0.0,
	}
}

// Discount returns the discount percentage for a segment. Unknown segments
// get no discount.
func (d DiscountTable) Discount(segment string) float64 {
	if pct, ok := d[segment]; ok {
		return pct
	}
	return 0.0
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// In production, environment variables are set directly
			// so it's okay if .env files don't exist
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		AWSRegion:          getEnv("AWS_REGION", "eu-central-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ModelDir:           getEnv("MODEL_DIR", "./mlmodels"),
		ModelArtifactName:  getEnv("MODEL_ARTIFACT", "client_segment_classifier.json"),
		ModelMetadataName:  getEnv("MODEL_METADATA", "model_metadata.json"),
		Discounts:          loadDiscounts(),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// loadDiscounts builds the discount table from DISCOUNT_A..DISCOUNT_D
// overrides, falling back to the canonical default per segment.
func loadDiscounts() DiscountTable {
	table := DefaultDiscounts()
	for segment := range table {
		raw := os.Getenv("DISCOUNT_" + segment)
		if raw == "" {
			continue
		}
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil || pct < 0 {
			log.Printf("Ignoring invalid DISCOUNT_%s=%q", segment, raw)
			continue
		}
		table[segment] = pct
	}
	return table
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetConfig returns the loaded configuration. Falls back to defaults when
// Load has not been called (primarily for tests).
func GetConfig() *Config {
	if appConfig == nil {
		appConfig = &Config{
			Port:      "8080",
			GoEnv:     getEnv("GO_ENV", "development"),
			LogLevel:  "info",
			ModelDir:  "./mlmodels",
			Discounts: DefaultDiscounts(),
		}
	}
	return appConfig
}

// SetConfig replaces the global configuration (primarily for testing)
func SetConfig(c *Config) {
	appConfig = c
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

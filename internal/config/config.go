package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Missing-price policies recognized by the valuation engine.
const (
	PolicyFail         = "fail"
	PolicyCarryForward = "carry-forward"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Engine    EngineConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// EngineConfig is the recognized configuration surface of the analytics
// engine: the valuation missing-price policy, the risk window and metric
// defaults, and the factor alignment bound.
type EngineConfig struct {
	MissingPricePolicy  string  // PolicyFail or PolicyCarryForward
	PriceLookbackDays   int     // carry-forward bound, in calendar days
	RiskWindow          int     // trailing return observations per metric
	RiskMinSamples      int     // below this, risk computation errors out
	RiskConfidence      float64 // default VaR/CVaR confidence level
	RiskMethod          string  // "historical" or "parametric"
	AnnualizationFactor float64 // periods per year for volatility scaling
	FactorLookbackDays  int     // nearest-prior join bound for factor alignment
}

// SchedulerConfig holds the nightly batch run configuration.
type SchedulerConfig struct {
	Enabled bool
	Spec    string // cron spec for the batch run
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/analytics.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost"), ","),
		},
		Engine: EngineConfig{
			MissingPricePolicy:  getEnv("MISSING_PRICE_POLICY", PolicyCarryForward),
			PriceLookbackDays:   getEnvInt("PRICE_LOOKBACK_DAYS", 5),
			RiskWindow:          getEnvInt("RISK_WINDOW", 252),
			RiskMinSamples:      getEnvInt("RISK_MIN_SAMPLES", 20),
			RiskConfidence:      getEnvFloat("RISK_CONFIDENCE", 0.95),
			RiskMethod:          getEnv("RISK_METHOD", "historical"),
			AnnualizationFactor: getEnvFloat("ANNUALIZATION_FACTOR", 252),
			FactorLookbackDays:  getEnvInt("FACTOR_LOOKBACK_DAYS", 7),
		},
		Scheduler: SchedulerConfig{
			Enabled: getEnvBool("SCHEDULE_ENABLED", false),
			Spec:    getEnv("SCHEDULE_SPEC", "@daily"),
		},
	}

	if p := config.Engine.MissingPricePolicy; p != PolicyFail && p != PolicyCarryForward {
		return nil, fmt.Errorf("invalid MISSING_PRICE_POLICY %q", p)
	}
	if c := config.Engine.RiskConfidence; c <= 0 || c >= 1 {
		return nil, fmt.Errorf("invalid RISK_CONFIDENCE %v", c)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

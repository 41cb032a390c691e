package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPageSpeedEndpoint is the PageSpeed Insights v5 API.
const DefaultPageSpeedEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// Config holds everything the service reads from the environment.
type Config struct {
	Port              string
	GinMode           string
	Env               string
	DevMode           bool
	GoogleAPIKey      string
	PageSpeedEndpoint string
	APIPrefixes       []string
	HTTPTimeout       time.Duration
	MaxBodyBytes      int64
	RateLimitRPS      float64
	RateLimitBurst    int
	DataDir           string
}

// LoadEnv loads .env.development first (local development), then .env.
// Missing files are not an error; the process environment is used as is.
func LoadEnv() bool {
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			return false
		}
	}
	return true
}

// Load builds a Config from environment variables with defaults.
func Load() Config {
	return Config{
		Port:              getEnv("PORT", "8082"),
		GinMode:           getEnv("GIN_MODE", "release"),
		Env:               getEnv("ENV", ""),
		DevMode:           getEnvBool("DEV_MODE", false),
		GoogleAPIKey:      getEnv("GOOGLE_API_KEY", ""),
		PageSpeedEndpoint: getEnv("PAGESPEED_API_URL", DefaultPageSpeedEndpoint),
		APIPrefixes:       getEnvList("API_PREFIXES", []string{"/.netlify/functions/api", "/api"}),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		MaxBodyBytes:      int64(getEnvInt("MAX_BODY_BYTES", 10*1024*1024)),
		RateLimitRPS:      getEnvFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", 5),
		DataDir:           getEnv("DATA_DIR", "data"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return value
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blanks and trailing slashes.
func getEnvList(key string, fallback []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSuffix(strings.TrimSpace(part), "/")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

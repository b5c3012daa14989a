package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadEnv loads .env if present. Real environment variables win.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}
}

// GetEnv reads an environment variable or returns the provided default
func GetEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

// Server holds the HTTP server settings.
type Server struct {
	Addr           string
	AllowedOrigins string
	FleetFile      string
	TimeZone       *time.Location
	SessionCache   int
}

// LoadServer reads the server settings from the environment.
func LoadServer() Server {
	tz, err := time.LoadLocation(GetEnv("APP_TIMEZONE", "UTC"))
	if err != nil {
		logrus.WithError(err).Warn("Unknown APP_TIMEZONE, falling back to UTC")
		tz = time.UTC
	}
	size, err := strconv.Atoi(GetEnv("SESSION_CACHE_SIZE", "256"))
	if err != nil || size <= 0 {
		size = 256
	}
	return Server{
		Addr:           GetEnv("HTTP_ADDR", "0.0.0.0:8080"),
		AllowedOrigins: GetEnv("CORS_ORIGINS", ""),
		FleetFile:      GetEnv("FLEET_CONFIG", "fleet.yaml"),
		TimeZone:       tz,
		SessionCache:   size,
	}
}

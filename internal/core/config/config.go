package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	Env         string

	// Comma-separated broker list; empty disables the event publisher.
	KafkaBrokers string

	// External directions service (polyline cache).
	GoogleAPIKey   string
	RouteOriginLat float64
	RouteOriginLon float64
	RouteDestLat   float64
	RouteDestLon   float64
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on system env variables")
	}

	return &Config{
		Port:           getEnv("PORT", "3000"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		Env:            getEnv("ENV", "development"),
		KafkaBrokers:   getEnv("KAFKA_BROKERS", ""),
		GoogleAPIKey:   getEnv("GOOGLE_MAPS_API_KEY", ""),
		RouteOriginLat: getEnvFloat("ROUTE_ORIGIN_LAT", -23.5505),
		RouteOriginLon: getEnvFloat("ROUTE_ORIGIN_LON", -46.6333),
		RouteDestLat:   getEnvFloat("ROUTE_DEST_LAT", -23.5629),
		RouteDestLon:   getEnvFloat("ROUTE_DEST_LON", -46.6544),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("Invalid float in env, using fallback", "key", key, "value", value)
		return fallback
	}
	return f
}

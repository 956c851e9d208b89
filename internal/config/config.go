// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// GoogleMapsAPIKey authenticates distance matrix and geocoding calls. Required.
	GoogleMapsAPIKey string

	// GoogleOAuthToken is the JSON-encoded OAuth2 token used to access the
	// calendar account. Required.
	GoogleOAuthToken string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// BuildingCodesPath points at a JSON file of campus building code →
	// address pairs. Empty means no code table: locations pass through as-is.
	BuildingCodesPath string

	// GeocodeRegion biases geocoding results towards a region (ccTLD code).
	// Defaults to "nl".
	GeocodeRegion string

	// HorizonDays is how far ahead reconciliation looks. Defaults to 14.
	HorizonDays int

	// MaxEventsPerCalendar caps how many upcoming events are listed per
	// calendar in one run. Defaults to 20.
	MaxEventsPerCalendar int
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		BuildingCodesPath: os.Getenv("BUILDING_CODES_PATH"),
		GeocodeRegion:     getEnv("GEOCODE_REGION", "nl"),
	}

	var missing []string
	for _, req := range []struct {
		key  string
		dest *string
	}{
		{"DATABASE_URL", &cfg.DatabaseURL},
		{"GOOGLE_MAPS_API_KEY", &cfg.GoogleMapsAPIKey},
		{"GOOGLE_OAUTH_TOKEN", &cfg.GoogleOAuthToken},
	} {
		*req.dest = os.Getenv(req.key)
		if *req.dest == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.HorizonDays, err = getEnvInt("HORIZON_DAYS", 14); err != nil {
		return Config{}, err
	}
	if cfg.MaxEventsPerCalendar, err = getEnvInt("MAX_EVENTS_PER_CALENDAR", 20); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt parses the named variable as a positive integer, returning
// fallback when it is unset.
func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}

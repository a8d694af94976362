package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in images without zoneinfo

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string

	StoreBackend    string
	DBPath          string
	SupabaseURL     string
	SupabaseAnonKey string

	JWTSecret  string
	SessionTTL time.Duration

	MapProvider      string
	GoogleMapsAPIKey string
	MapLoadTimeout   time.Duration

	Geocoder         string
	NominatimURL     string
	GeocodeUserAgent string

	RefreshInterval time.Duration
	Timezone        string

	LogLevel string
	LogFile  string
}

// LoadEnvFile merges path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func Load() *Config {
	return &Config{
		ListenAddr:       getEnv("LISTEN_ADDR", ":8080"),
		StoreBackend:     getEnv("STORE_BACKEND", "sqlite"),
		DBPath:           getEnv("DB_PATH", "/data/clawmap.db"),
		SupabaseURL:      getEnv("SUPABASE_URL", getEnv("VITE_SUPABASE_URL", "")),
		SupabaseAnonKey:  getEnv("SUPABASE_ANON_KEY", getEnv("VITE_SUPABASE_ANON_KEY", "")),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		SessionTTL:       getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
		MapProvider:      getEnv("MAP_PROVIDER", "leaflet"),
		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		MapLoadTimeout:   getEnvAsDuration("MAP_LOAD_TIMEOUT", 10*time.Second),
		Geocoder:         getEnv("GEOCODER", "nominatim"),
		NominatimURL:     getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		GeocodeUserAgent: getEnv("GEOCODE_USER_AGENT", "clawmap/1.0"),
		RefreshInterval:  getEnvAsDuration("REFRESH_INTERVAL", time.Minute),
		Timezone:         getEnv("TIMEZONE", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", ""),
	}
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.MapProvider {
	case "leaflet":
	case "google":
		if c.GoogleMapsAPIKey == "" {
			return errors.New("GOOGLE_MAPS_API_KEY is required for the google map provider")
		}
	default:
		return fmt.Errorf("unknown MAP_PROVIDER %q", c.MapProvider)
	}

	switch c.Geocoder {
	case "nominatim", "none":
	case "google":
		if c.GoogleMapsAPIKey == "" {
			return errors.New("GOOGLE_MAPS_API_KEY is required for the google geocoder")
		}
	default:
		return fmt.Errorf("unknown GEOCODER %q", c.Geocoder)
	}

	if c.MapLoadTimeout <= 0 {
		return errors.New("MAP_LOAD_TIMEOUT must be positive")
	}
	if c.RefreshInterval < 0 {
		return errors.New("REFRESH_INTERVAL must not be negative")
	}
	return nil
}

// ValidateStore checks only the store settings, for commands that read data
// without serving.
func (c *Config) ValidateStore() error {
	switch c.StoreBackend {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite store")
		}
	case "postgrest":
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required for the postgrest store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// Location resolves Timezone, falling back to the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load TIMEZONE: %w", err)
	}
	return loc, nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return defaultVal
}

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	val := getEnv(key, "")
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n := getEnvAsInt(key, -1); n >= 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

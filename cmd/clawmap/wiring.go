package main

import (
	"database/sql"
	"log/slog"

	"github.com/vbonduro/clawmap/internal/config"
	"github.com/vbonduro/clawmap/internal/geocode"
	googlegeocode "github.com/vbonduro/clawmap/internal/geocode/google"
	"github.com/vbonduro/clawmap/internal/geocode/nominatim"
	"github.com/vbonduro/clawmap/internal/mapview"
	googlemap "github.com/vbonduro/clawmap/internal/mapview/google"
	"github.com/vbonduro/clawmap/internal/mapview/leaflet"
	"github.com/vbonduro/clawmap/internal/metrics"
	"github.com/vbonduro/clawmap/internal/service"
	"github.com/vbonduro/clawmap/internal/store"
	"github.com/vbonduro/clawmap/internal/store/postgrest"
	"github.com/vbonduro/clawmap/internal/store/sqlite"
)

func newStore(cfg *config.Config, database *sql.DB, m *metrics.Metrics, logger *slog.Logger) store.Client {
	var c store.Client
	switch cfg.StoreBackend {
	case "postgrest":
		logger.Info("using PostgREST store", "url", cfg.SupabaseURL)
		c = postgrest.New(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	default:
		logger.Info("using SQLite store", "path", cfg.DBPath)
		c = sqlite.New(database)
	}
	return store.Instrument(c, m)
}

// newGeocoder returns nil when reverse geocoding is switched off; the app
// then leaves the city blank.
func newGeocoder(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) geocode.Geocoder {
	switch cfg.Geocoder {
	case "google":
		logger.Info("using Google geocoder")
		return geocode.New("google", googlegeocode.New(googlegeocode.DefaultURL, cfg.GoogleMapsAPIKey), m, logger)
	case "none":
		logger.Info("reverse geocoding disabled")
		return nil
	default:
		logger.Info("using Nominatim geocoder", "url", cfg.NominatimURL)
		return geocode.New("nominatim", nominatim.New(cfg.NominatimURL, cfg.GeocodeUserAgent), m, logger)
	}
}

func newMapFactory(cfg *config.Config, logger *slog.Logger) mapview.Factory {
	if cfg.MapProvider == "google" {
		logger.Info("using Google Maps widget")
		loader := googlemap.NewLoader(googlemap.DefaultScriptURL, cfg.GoogleMapsAPIKey, cfg.MapLoadTimeout)
		return googlemap.Factory(loader)
	}
	logger.Info("using Leaflet widget")
	return leaflet.Factory()
}

func newApp(cfg *config.Config, database *sql.DB, m *metrics.Metrics, logger *slog.Logger) (*service.App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return service.NewApp(newStore(cfg, database, m, logger), service.Options{
		Geocoder: newGeocoder(cfg, m, logger),
		Maps:     newMapFactory(cfg, logger),
		Location: loc,
		Observer: m,
	}, logger), nil
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/meteolab/weather-forecast-service/internal/weather"
)

// Store driver selection.
const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
	StoreDriverNone   = "none"
)

type AppConfig struct {
	Port string

	// Upstream provider.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	UpstreamTimeout    time.Duration // default client timeout for single-city calls
	UpstreamRPS        float64       // outbound rate limit; 0 disables it
	UpstreamBurst      int

	// Document store.
	StoreDriver     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Popular-cities view.
	PopularCities []string
	CityTimeout   time.Duration // per-city timeout inside the batch

	// History endpoint bounds.
	HistoryDefaultLimit int64
	HistoryMaxLimit     int64

	// RefreshInterval drives the optional popular-cities refresh job;
	// 0 disables it.
	RefreshInterval time.Duration

	// AllowOrigins is the CORS allow list for the frontend collaborator.
	AllowOrigins string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		Port:                getenvDefault("PORT", "8080"),
		OpenWeatherAPIKey:   os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL:  getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDatabase:       getenvDefault("MONGO_DATABASE", "weather_db"),
		MongoCollection:     getenvDefault("MONGO_COLLECTION", "weather_data"),
		AllowOrigins:        getenvDefault("FRONTEND_URL", "http://localhost:3000"),
		UpstreamRPS:         getenvFloat("UPSTREAM_RPS", 10),
		UpstreamBurst:       getenvInt("UPSTREAM_BURST", 20),
		HistoryDefaultLimit: int64(getenvInt("HISTORY_DEFAULT_LIMIT", 10)),
		HistoryMaxLimit:     int64(getenvInt("HISTORY_MAX_LIMIT", 100)),
	}

	var err error
	if cfg.UpstreamTimeout, err = getenvDuration("UPSTREAM_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CityTimeout, err = getenvDuration("CITY_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", 0); err != nil {
		return nil, err
	}

	cfg.PopularCities = loadPopularCities()
	cfg.StoreDriver = loadStoreDriver(cfg.MongoURI)

	return cfg, nil
}

// loadPopularCities reads the comma-separated POPULAR_CITIES override,
// falling back to the fixed default list.
func loadPopularCities() []string {
	raw := os.Getenv("POPULAR_CITIES")
	if raw == "" {
		return weather.DefaultPopularCities
	}

	var cities []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cities = append(cities, c)
		}
	}
	if len(cities) == 0 {
		return weather.DefaultPopularCities
	}
	return cities
}

// loadStoreDriver picks the store driver; unset defaults to mongo when a URI
// is configured and none otherwise.
func loadStoreDriver(mongoURI string) string {
	driver := strings.ToLower(os.Getenv("STORE_DRIVER"))
	switch driver {
	case StoreDriverMongo, StoreDriverMemory, StoreDriverNone:
		return driver
	case "":
		if mongoURI != "" {
			return StoreDriverMongo
		}
		return StoreDriverNone
	default:
		log.Printf("INFO: unknown STORE_DRIVER %q, persistence disabled", driver)
		return StoreDriverNone
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// internal/config/config.go
package config

import (
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	API        APIConfig
	Dashboard  DashboardConfig
	Simulation SimulationConfig
	Cache      CacheConfig
	Weather    WeatherConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// APIConfig describes the remote order/inventory API the dashboard fronts.
type APIConfig struct {
	BaseURL        string
	PostEncoding   string
	TimeoutSeconds int
	MaxConcurrency int
}

type DashboardConfig struct {
	InitialView            string
	SessionIdleMinutes     int
	RequireProductQuantity bool
}

type SimulationConfig struct {
	Seed        int
	DefaultDays int
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	CatalogTTLSeconds int
}

// WeatherConfig holds the weather widget settings. The API key stays on the
// server and is never rendered into a page.
type WeatherConfig struct {
	Enabled    bool
	APIKey     string
	BaseURL    string
	City       string
	Units      string
	TTLSeconds int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		instance = build()
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8000")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("API_BASE_URL", "http://localhost:5050")
	viper.SetDefault("API_POST_ENCODING", "json")
	viper.SetDefault("API_TIMEOUT_SECONDS", 30)
	viper.SetDefault("API_MAX_CONCURRENCY", 8)
	viper.SetDefault("SIMULATION_SEED", 123)
	viper.SetDefault("SIMULATION_DEFAULT_DAYS", 7)
	viper.SetDefault("RECENT_ORDERS_VIEW", "recent")
	viper.SetDefault("SESSION_IDLE_MINUTES", 30)
	viper.SetDefault("PRODUCT_REQUIRE_QUANTITY", true)
	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_CATALOG_TTL_SECONDS", 60)
	viper.SetDefault("WEATHER_ENABLED", false)
	viper.SetDefault("WEATHER_API_KEY", "")
	viper.SetDefault("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather")
	viper.SetDefault("WEATHER_CITY", "Copenhagen")
	viper.SetDefault("WEATHER_UNITS", "metric")
	viper.SetDefault("WEATHER_TTL_SECONDS", 600)
}

func build() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		API: APIConfig{
			BaseURL:        strings.TrimRight(viper.GetString("API_BASE_URL"), "/"),
			PostEncoding:   strings.ToLower(strings.TrimSpace(viper.GetString("API_POST_ENCODING"))),
			TimeoutSeconds: viper.GetInt("API_TIMEOUT_SECONDS"),
			MaxConcurrency: viper.GetInt("API_MAX_CONCURRENCY"),
		},
		Dashboard: DashboardConfig{
			InitialView:            strings.ToLower(viper.GetString("RECENT_ORDERS_VIEW")),
			SessionIdleMinutes:     viper.GetInt("SESSION_IDLE_MINUTES"),
			RequireProductQuantity: viper.GetBool("PRODUCT_REQUIRE_QUANTITY"),
		},
		Simulation: SimulationConfig{
			Seed:        viper.GetInt("SIMULATION_SEED"),
			DefaultDays: viper.GetInt("SIMULATION_DEFAULT_DAYS"),
		},
		Cache: CacheConfig{
			Enabled:           viper.GetBool("CACHE_ENABLED"),
			RedisURL:          viper.GetString("REDIS_URL"),
			RedisHost:         viper.GetString("REDIS_HOST"),
			RedisPort:         viper.GetString("REDIS_PORT"),
			RedisPassword:     viper.GetString("REDIS_PASSWORD"),
			RedisDB:           viper.GetInt("REDIS_DB"),
			CatalogTTLSeconds: viper.GetInt("CACHE_CATALOG_TTL_SECONDS"),
		},
		Weather: WeatherConfig{
			Enabled:    viper.GetBool("WEATHER_ENABLED"),
			APIKey:     viper.GetString("WEATHER_API_KEY"),
			BaseURL:    viper.GetString("WEATHER_BASE_URL"),
			City:       viper.GetString("WEATHER_CITY"),
			Units:      viper.GetString("WEATHER_UNITS"),
			TTLSeconds: viper.GetInt("WEATHER_TTL_SECONDS"),
		},
	}
}

// Timeout returns the per-request upstream timeout; zero means none.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SessionIdle returns how long an untouched session survives.
func (c DashboardConfig) SessionIdle() time.Duration {
	if c.SessionIdleMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

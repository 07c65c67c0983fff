package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // zone database for minimal container images

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
	Log       LogConfig
	Geocoding GeocodingConfig
	Routing   RoutingConfig
	LLM       LLMConfig
	Shortener ShortenerConfig
	Dispatch  DispatchConfig
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Name        string
	Environment string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string
}

// BoundingBox is a lat/lon rectangle.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// GeocodingConfig holds geocoding provider configuration.
type GeocodingConfig struct {
	GoogleAPIKey string
	GoogleURL    string
	MapyAPIKey   string
	MapyURL      string
	NominatimURL string
	UserAgent    string
	Timeout      time.Duration
	HomeRegion   BoundingBox // Preferred area for ambiguous results
	HomeCountry  BoundingBox // Wider fallback area
}

// RoutingConfig holds routing provider configuration.
type RoutingConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxInFlight int64
}

// LLMConfig holds the ranking/generation service configuration.
type LLMConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// ShortenerConfig holds URL shortener configuration.
type ShortenerConfig struct {
	Enabled bool
	URL     string
	Timeout time.Duration
}

// DispatchConfig holds assignment engine defaults.
type DispatchConfig struct {
	DefaultLanguage   string
	ETASentinel       int // Minutes assigned to vehicles whose ETA is unknown
	CallTimeout       time.Duration
	NavigationBaseURL string
	Timezone          string // IANA zone of the dispatch office
	VanThreshold      int    // Van pricing threshold for tariffs that set none
}

// Location loads the office time zone.
func (c DispatchConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load dispatch timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load loads configuration from environment variables.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: v.GetString("APP_ENV"),
		},
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),

			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		NewRelic: NewRelicConfig{
			AppName:    v.GetString("NEW_RELIC_APP_NAME"),
			LicenseKey: v.GetString("NEW_RELIC_LICENSE_KEY"),
			Enabled:    v.GetBool("NEW_RELIC_ENABLED"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Geocoding: GeocodingConfig{
			GoogleAPIKey: v.GetString("GEOCODING_GOOGLE_API_KEY"),
			GoogleURL:    v.GetString("GEOCODING_GOOGLE_URL"),
			MapyAPIKey:   v.GetString("GEOCODING_MAPY_API_KEY"),
			MapyURL:      v.GetString("GEOCODING_MAPY_URL"),
			NominatimURL: v.GetString("GEOCODING_NOMINATIM_URL"),
			UserAgent:    v.GetString("GEOCODING_USER_AGENT"),
			Timeout:      v.GetDuration("GEOCODING_TIMEOUT"),
			HomeRegion: BoundingBox{
				MinLat: v.GetFloat64("GEOCODING_REGION_MIN_LAT"),
				MinLon: v.GetFloat64("GEOCODING_REGION_MIN_LON"),
				MaxLat: v.GetFloat64("GEOCODING_REGION_MAX_LAT"),
				MaxLon: v.GetFloat64("GEOCODING_REGION_MAX_LON"),
			},
			HomeCountry: BoundingBox{
				MinLat: v.GetFloat64("GEOCODING_COUNTRY_MIN_LAT"),
				MinLon: v.GetFloat64("GEOCODING_COUNTRY_MIN_LON"),
				MaxLat: v.GetFloat64("GEOCODING_COUNTRY_MAX_LAT"),
				MaxLon: v.GetFloat64("GEOCODING_COUNTRY_MAX_LON"),
			},
		},
		Routing: RoutingConfig{
			BaseURL:     v.GetString("ROUTING_BASE_URL"),
			Timeout:     v.GetDuration("ROUTING_TIMEOUT"),
			MaxInFlight: v.GetInt64("ROUTING_MAX_IN_FLIGHT"),
		},
		LLM: LLMConfig{
			APIKey:  v.GetString("LLM_API_KEY"),
			Model:   v.GetString("LLM_MODEL"),
			BaseURL: v.GetString("LLM_BASE_URL"),
			Timeout: v.GetDuration("LLM_TIMEOUT"),
		},
		Shortener: ShortenerConfig{
			Enabled: v.GetBool("SHORTENER_ENABLED"),
			URL:     v.GetString("SHORTENER_URL"),
			Timeout: v.GetDuration("SHORTENER_TIMEOUT"),
		},
		Dispatch: DispatchConfig{
			DefaultLanguage:   v.GetString("DISPATCH_DEFAULT_LANGUAGE"),
			ETASentinel:       v.GetInt("DISPATCH_ETA_SENTINEL_MINUTES"),
			CallTimeout:       v.GetDuration("DISPATCH_CALL_TIMEOUT"),
			NavigationBaseURL: v.GetString("DISPATCH_NAVIGATION_BASE_URL"),
			Timezone:          v.GetString("DISPATCH_TIMEZONE"),
			VanThreshold:      v.GetInt("DISPATCH_VAN_PASSENGER_THRESHOLD"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "dispatch-service")
	v.SetDefault("APP_ENV", "local")

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 10*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60*time.Second)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "dispatch")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("NEW_RELIC_APP_NAME", "dispatch-service")
	v.SetDefault("NEW_RELIC_LICENSE_KEY", "")
	v.SetDefault("NEW_RELIC_ENABLED", false)

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("GEOCODING_GOOGLE_API_KEY", "")
	v.SetDefault("GEOCODING_GOOGLE_URL", "https://maps.googleapis.com/maps/api/place/details/json")
	v.SetDefault("GEOCODING_MAPY_API_KEY", "")
	v.SetDefault("GEOCODING_MAPY_URL", "https://api.mapy.cz/v1/geocode")
	v.SetDefault("GEOCODING_NOMINATIM_URL", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("GEOCODING_USER_AGENT", "dispatch-service/1.0")
	v.SetDefault("GEOCODING_TIMEOUT", 5*time.Second)
	// South Moravia around Mikulov.
	v.SetDefault("GEOCODING_REGION_MIN_LAT", 48.6)
	v.SetDefault("GEOCODING_REGION_MIN_LON", 16.3)
	v.SetDefault("GEOCODING_REGION_MAX_LAT", 49.1)
	v.SetDefault("GEOCODING_REGION_MAX_LON", 17.2)
	// Czech Republic.
	v.SetDefault("GEOCODING_COUNTRY_MIN_LAT", 48.55)
	v.SetDefault("GEOCODING_COUNTRY_MIN_LON", 12.09)
	v.SetDefault("GEOCODING_COUNTRY_MAX_LAT", 51.06)
	v.SetDefault("GEOCODING_COUNTRY_MAX_LON", 18.87)

	v.SetDefault("ROUTING_BASE_URL", "https://router.project-osrm.org")
	v.SetDefault("ROUTING_TIMEOUT", 8*time.Second)
	v.SetDefault("ROUTING_MAX_IN_FLIGHT", 8)

	v.SetDefault("LLM_API_KEY", "")
	v.SetDefault("LLM_MODEL", "gemini-2.5-flash")
	v.SetDefault("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("LLM_TIMEOUT", 20*time.Second)

	v.SetDefault("SHORTENER_ENABLED", true)
	v.SetDefault("SHORTENER_URL", "https://is.gd/create.php")
	v.SetDefault("SHORTENER_TIMEOUT", 3*time.Second)

	v.SetDefault("DISPATCH_DEFAULT_LANGUAGE", "cs")
	v.SetDefault("DISPATCH_ETA_SENTINEL_MINUTES", 999)
	v.SetDefault("DISPATCH_CALL_TIMEOUT", 45*time.Second)
	v.SetDefault("DISPATCH_NAVIGATION_BASE_URL", "https://www.google.com/maps/dir/")
	v.SetDefault("DISPATCH_TIMEZONE", "Europe/Prague")
	v.SetDefault("DISPATCH_VAN_PASSENGER_THRESHOLD", 4)
}

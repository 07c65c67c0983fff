package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dispatch/internal/app"
	"dispatch/internal/config"
	"dispatch/internal/geocoding"
	"dispatch/internal/handler"
	"dispatch/internal/httpx"
	"dispatch/internal/llm"
	"dispatch/internal/logger"
	internalRedis "dispatch/internal/redis"
	"dispatch/internal/repository/postgres"
	"dispatch/internal/routing"
	"dispatch/internal/service"
	"dispatch/internal/shortener"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	log, err := logger.New(cfg.App, cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	officeZone, err := cfg.Dispatch.Location()
	if err != nil {
		log.Fatal("invalid dispatch timezone", logger.Err(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Warn("failed to initialize New Relic", logger.Err(err))
		} else {
			log.Info("New Relic enabled", logger.String("app", cfg.NewRelic.AppName))
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp, log)
	if err != nil {
		log.Fatal("failed to connect to database", logger.Err(err))
	}
	defer db.Close()

	// Redis is optional.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp, log)
		if err != nil {
			log.Fatal("failed to connect to redis", logger.Err(err))
		}
		defer redisClient.Close()
	}

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, officeZone, cfg, log)

	// Start server in goroutine.
	go func() {
		log.Info("starting server", logger.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", logger.Err(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", logger.Err(err))
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}
	log.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, officeZone *time.Location, cfg *config.Config, log *zap.Logger) *http.Server {
	// Geocoding.
	geoHTTP := httpx.NewClient(cfg.Geocoding.Timeout)

	var detail geocoding.DetailProvider
	if cfg.Geocoding.GoogleAPIKey != "" {
		detail = geocoding.NewGooglePlaces(geoHTTP, cfg.Geocoding.GoogleURL, cfg.Geocoding.GoogleAPIKey)
	}
	var providers []geocoding.Provider
	if cfg.Geocoding.MapyAPIKey != "" {
		providers = append(providers, geocoding.NewMapy(geoHTTP, cfg.Geocoding.MapyURL, cfg.Geocoding.MapyAPIKey))
	}
	providers = append(providers, geocoding.NewNominatim(geoHTTP, cfg.Geocoding.NominatimURL, cfg.Geocoding.UserAgent))

	var geocodeStore geocoding.Store
	var locks service.VehicleLocker
	if redisClient != nil {
		geocodeStore = internalRedis.NewGeocodeStore(redisClient)
		locks = internalRedis.NewLockStore(redisClient)
	}
	cache := geocoding.NewTieredCache(geocoding.NewMemoryCache(), geocodeStore, log)
	resolver := geocoding.NewResolver(
		cache,
		detail,
		providers,
		geocoding.NewRegion(cfg.Geocoding.HomeRegion),
		geocoding.NewRegion(cfg.Geocoding.HomeCountry),
		log,
	)

	// Routing.
	osrm := routing.NewOSRM(httpx.NewClient(cfg.Routing.Timeout), cfg.Routing.BaseURL)
	matrix := routing.NewMatrixBuilder(osrm, cfg.Routing.MaxInFlight, log)

	// Assisted mode and link shortening.
	assistant := llm.NewClient(httpx.NewClient(cfg.LLM.Timeout), cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.APIKey)
	var urlShortener service.URLShortener
	if cfg.Shortener.Enabled {
		urlShortener = shortener.NewClient(httpx.NewClient(cfg.Shortener.Timeout), cfg.Shortener.URL)
	}

	// Initialize repositories.
	vehicleRepo := postgres.NewVehicleRepository(db)
	tariffRepo := postgres.NewTariffRepository(db)

	// Initialize services.
	assignmentService := service.NewAssignmentService(resolver, matrix, assistant, urlShortener, service.AssignmentConfig{
		DefaultLanguage:   cfg.Dispatch.DefaultLanguage,
		ETASentinel:       cfg.Dispatch.ETASentinel,
		NavigationBaseURL: cfg.Dispatch.NavigationBaseURL,
		CallTimeout:       cfg.Dispatch.CallTimeout,
		Location:          officeZone,
		VanThreshold:      cfg.Dispatch.VanThreshold,
	}, log)
	vehicleService := service.NewVehicleService(vehicleRepo, locks, nil, log)
	tariffService := service.NewTariffService(tariffRepo, service.NewTariffPricer(nil, service.PricerConfig{
		Location:     officeZone,
		VanThreshold: cfg.Dispatch.VanThreshold,
	}))

	// Initialize handlers.
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, vehicleService, tariffService, cfg.Dispatch.DefaultLanguage)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)
	tariffHandler := handler.NewTariffHandler(tariffService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		AssignmentHandler: assignmentHandler,
		VehicleHandler:    vehicleHandler,
		TariffHandler:     tariffHandler,
		RedisClient:       redisClient,
		NewRelicApp:       nrApp,
		Logger:            log,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

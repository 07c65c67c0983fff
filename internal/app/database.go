package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq" // Registers "nrpostgres" driver
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"dispatch/internal/config"
	"dispatch/internal/logger"
)

// postgresDriver picks the traced driver when New Relic is running.
func postgresDriver(nrApp *newrelic.Application) string {
	if nrApp != nil {
		return "nrpostgres"
	}
	return "postgres"
}

// NewDatabase opens the fleet and tariff store and verifies it answers.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, nrApp *newrelic.Application, log *zap.Logger) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
	return openDatabase(ctx, postgresDriver(nrApp), dsn, cfg, log)
}

func openDatabase(ctx context.Context, driver, dsn string, cfg config.DatabaseConfig, log *zap.Logger) (*sql.DB, error) {
	log = logger.OrNop(log).With(
		logger.String("driver", driver),
		logger.String("host", cfg.Host),
		logger.String("database", cfg.DBName),
	)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("dispatch store: open %s: %w", driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	log.Debug("dispatch store pool configured",
		logger.Int("max_open", cfg.MaxOpenConns),
		logger.Int("max_idle", cfg.MaxIdleConns),
		logger.Duration("max_lifetime", cfg.ConnMaxLifetime),
		logger.Duration("max_idle_time", cfg.ConnMaxIdleTime),
	)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		log.Error("dispatch store unreachable", logger.Err(err))
		return nil, fmt.Errorf("dispatch store: ping: %w", err)
	}

	log.Info("dispatch store connected")
	return db, nil
}

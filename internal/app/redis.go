package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dispatch/internal/config"
	"dispatch/internal/logger"
)

// NewRedisClient connects the shared geocode cache, vehicle locks and
// idempotency store. Commands are traced when nrApp is set.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, nrApp *newrelic.Application, log *zap.Logger) (*redis.Client, error) {
	log = logger.OrNop(log).With(logger.String("addr", cfg.Addr), logger.Int("db", cfg.DB))

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if nrApp != nil {
		client.AddHook(&datastoreHook{app: nrApp})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Error("dispatch cache unreachable", logger.Err(err))
		return nil, fmt.Errorf("dispatch cache: ping %s: %w", cfg.Addr, err)
	}

	log.Info("dispatch cache connected", logger.Bool("traced", nrApp != nil))
	return client, nil
}

// keyspace returns the namespace of a dispatch key: "cache:geocode",
// "lock:vehicle" or "idempotency". Keys outside a namespace report "redis".
func keyspace(cmd redis.Cmder) string {
	args := cmd.Args()
	if len(args) < 2 {
		return "redis"
	}
	key, ok := args[1].(string)
	if !ok {
		return "redis"
	}
	parts := strings.SplitN(key, ":", 3)
	switch {
	case len(parts) == 3 && parts[0] != "idempotency":
		return parts[0] + ":" + parts[1]
	case len(parts) >= 2:
		return parts[0]
	default:
		return "redis"
	}
}

// datastoreHook reports redis commands as New Relic datastore segments.
type datastoreHook struct {
	app *newrelic.Application
}

func (h *datastoreHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *datastoreHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if txn := newrelic.FromContext(ctx); txn != nil {
			segment := newrelic.DatastoreSegment{
				StartTime:  txn.StartSegmentNow(),
				Product:    newrelic.DatastoreRedis,
				Operation:  cmd.Name(),
				Collection: keyspace(cmd),
			}
			defer segment.End()
		}
		return next(ctx, cmd)
	}
}

func (h *datastoreHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if txn := newrelic.FromContext(ctx); txn != nil && len(cmds) > 0 {
			segment := newrelic.DatastoreSegment{
				StartTime:  txn.StartSegmentNow(),
				Product:    newrelic.DatastoreRedis,
				Operation:  "pipeline",
				Collection: keyspace(cmds[0]),
			}
			defer segment.End()
		}
		return next(ctx, cmds)
	}
}

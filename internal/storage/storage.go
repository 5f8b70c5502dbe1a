package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskdesk/internal/config"
	"github.com/fastygo/taskdesk/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskdesk/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskdesk/internal/infrastructure/redis"
	"github.com/fastygo/taskdesk/repository"
	"github.com/fastygo/taskdesk/repository/boltdb"
	"github.com/fastygo/taskdesk/repository/postgres"
	redisRepo "github.com/fastygo/taskdesk/repository/redis"
)

// Backend bundles the repositories of the configured storage driver.
type Backend struct {
	Tasks repository.TaskRepository
	Users repository.UserRepository
	// Principals is nil when the Redis cache is disabled.
	Principals repository.PrincipalCache

	Checks []monitor.Check
	Size   monitor.SizeFunc

	closers []func() error
}

// Open connects the storage driver named in cfg and, when enabled, the
// principal cache.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Backend{}

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.Tasks = postgres.NewTaskRepository(pool)
		b.Users = postgres.NewUserRepository(pool)
		b.Checks = append(b.Checks, monitor.PostgresCheck(pool))
		b.closers = append(b.closers, func() error {
			pgInfra.Close(pool, logger)
			return nil
		})

	case config.StorageDriverBolt:
		store, err := boltdb.Open(cfg.Bolt.Path)
		if err != nil {
			return nil, fmt.Errorf("bolt: %w", err)
		}
		logger.Info("opened bolt store", zap.String("path", cfg.Bolt.Path))
		b.Tasks = boltdb.NewTaskRepository(store)
		b.Users = boltdb.NewUserRepository(store)
		b.Checks = append(b.Checks, monitor.StoreCheck("bolt", store.Ping))
		b.Size = store.Size
		b.closers = append(b.closers, store.Close)

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Redis.Enabled {
		client, err := redisInfra.NewClient(ctx, cfg.Redis)
		if err != nil {
			_ = b.Close(ctx)
			return nil, fmt.Errorf("redis: %w", err)
		}
		b.Principals = redisRepo.NewPrincipalCache(client, cfg.Redis.PrincipalTTL)
		b.Checks = append(b.Checks, monitor.RedisCheck(client))
		b.closers = append(b.closers, client.Close)
	}

	return b, nil
}

// Close releases every connection in reverse order of opening.
func (b *Backend) Close(_ context.Context) error {
	var result error
	for i := len(b.closers) - 1; i >= 0; i-- {
		result = errors.Join(result, b.closers[i]())
	}
	b.closers = nil
	return result
}

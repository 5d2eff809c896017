package cache

import (
	"context"
	"fmt"

	"github.com/erp/rental/internal/domain/dues"
	"github.com/erp/rental/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DuesStore stores the shared outstanding dues snapshot
type DuesStore interface {
	Save(ctx context.Context, snap *dues.Snapshot) error
	Load(ctx context.Context) (*dues.Snapshot, error)
	Close() error
}

// DuesStoreFactory creates dues stores based on configuration
type DuesStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// DuesStoreFactoryOption is a functional option for configuring the factory
type DuesStoreFactoryOption func(*DuesStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) DuesStoreFactoryOption {
	return func(f *DuesStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) DuesStoreFactoryOption {
	return func(f *DuesStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewDuesStoreFactory creates a new factory
func NewDuesStoreFactory(cfg config.RedisConfig, opts ...DuesStoreFactoryOption) *DuesStoreFactory {
	f := &DuesStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStore creates a Redis-backed dues store
func (f *DuesStoreFactory) CreateRedisStore() (DuesStore, error) {
	store, err := NewRedisDuesStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis dues store: %w", err)
	}
	return store, nil
}

// CreateStore returns the Redis store when Redis is enabled and reachable,
// and the in-memory store otherwise
func (f *DuesStoreFactory) CreateStore() (DuesStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory dues store")
		return NewInMemoryDuesStore(), nil
	}

	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis dues store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for dues cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory dues store. "+
		"Other instances will not see this instance's snapshot.",
		zap.Error(err),
	)
	return NewInMemoryDuesStore(), nil
}

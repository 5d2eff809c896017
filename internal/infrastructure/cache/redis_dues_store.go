package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/rental/internal/domain/dues"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const (
	defaultDuesKeyPrefix = "rental:dues:"
	defaultDuesTTL       = 48 * time.Hour
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisDuesStore shares the outstanding dues snapshot between instances.
// The snapshot expires after the TTL so a stale copy is never served after
// the scheduler stops running.
type RedisDuesStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// snapshotPayload is the stored form. The tenant index is rebuilt on load.
type snapshotPayload struct {
	AsOf        time.Time  `json:"as_of"`
	GeneratedAt time.Time  `json:"generated_at"`
	Dues        []dues.Due `json:"dues"`
}

// NewRedisDuesStore connects to Redis and checks the connection
func NewRedisDuesStore(cfg RedisConfig) (*RedisDuesStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisDuesStoreWithClient(client, "", 0), nil
}

// NewRedisDuesStoreWithClient creates a store with an existing Redis client
func NewRedisDuesStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisDuesStore {
	if keyPrefix == "" {
		keyPrefix = defaultDuesKeyPrefix
	}
	if ttl <= 0 {
		ttl = defaultDuesTTL
	}
	return &RedisDuesStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (s *RedisDuesStore) key() string {
	return s.keyPrefix + "snapshot"
}

// Save replaces the stored snapshot
func (s *RedisDuesStore) Save(ctx context.Context, snap *dues.Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store dues snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or shared.ErrNotFound
func (s *RedisDuesStore) Load(ctx context.Context) (*dues.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load dues snapshot: %w", err)
	}
	return decodeSnapshot(data)
}

// Client returns the underlying connection, shared with the API rate limiter
func (s *RedisDuesStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *RedisDuesStore) Close() error {
	return s.client.Close()
}

func encodeSnapshot(snap *dues.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshotPayload{
		AsOf:        snap.AsOf,
		GeneratedAt: snap.GeneratedAt,
		Dues:        snap.Dues,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode dues snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (*dues.Snapshot, error) {
	var p snapshotPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode dues snapshot: %w", err)
	}
	return dues.NewSnapshot(p.Dues, p.AsOf, p.GeneratedAt), nil
}

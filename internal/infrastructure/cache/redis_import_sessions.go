package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	csvimport "github.com/erp/rental/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultImportKeyPrefix = "rental:import:"
	defaultImportTTL       = 30 * time.Minute
)

var _ csvimport.SessionStore = (*RedisImportSessions)(nil)

// RedisImportSessions keeps import sessions in Redis so a file validated on
// one instance can be run on another. Each session is a string key that
// expires ttl after the session was created; a sorted set scored by
// creation time lists them for Recent.
type RedisImportSessions struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	now       func() time.Time
}

// NewRedisImportSessions stores sessions through client. A zero ttl takes
// 30 minutes.
func NewRedisImportSessions(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisImportSessions {
	if keyPrefix == "" {
		keyPrefix = defaultImportKeyPrefix
	}
	if ttl <= 0 {
		ttl = defaultImportTTL
	}
	return &RedisImportSessions{client: client, keyPrefix: keyPrefix, ttl: ttl, now: time.Now}
}

func (s *RedisImportSessions) key(id uuid.UUID) string {
	return s.keyPrefix + "session:" + id.String()
}

func (s *RedisImportSessions) indexKey() string {
	return s.keyPrefix + "index"
}

// Save writes the session, keeping its original expiry
func (s *RedisImportSessions) Save(ctx context.Context, session *csvimport.ImportSession) error {
	remaining := s.ttl - s.now().Sub(session.CreatedAt)
	if remaining <= 0 {
		return csvimport.ErrSessionNotFound
	}
	data, err := csvimport.EncodeSession(session)
	if err != nil {
		return err
	}

	cutoff := s.now().Add(-s.ttl).UnixNano()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(session.ID), data, remaining)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(session.CreatedAt.UnixNano()), Member: session.ID.String()})
		pipe.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("(%d", cutoff))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store import session: %w", err)
	}
	return nil
}

// Get returns a live session or csvimport.ErrSessionNotFound
func (s *RedisImportSessions) Get(ctx context.Context, id uuid.UUID) (*csvimport.ImportSession, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, csvimport.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load import session: %w", err)
	}
	return csvimport.DecodeSession(data)
}

// Recent returns up to limit live sessions, newest first. limit <= 0
// returns them all.
func (s *RedisImportSessions) Recent(ctx context.Context, limit int) ([]*csvimport.ImportSession, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list import sessions: %w", err)
	}
	if len(ids) == 0 {
		return []*csvimport.ImportSession{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keyPrefix + "session:" + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load import sessions: %w", err)
	}

	out := make([]*csvimport.ImportSession, 0, len(values))
	var gone []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// expired between the index read and MGET
			gone = append(gone, ids[i])
			continue
		}
		session, err := csvimport.DecodeSession([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	if len(gone) > 0 {
		s.client.ZRem(ctx, s.indexKey(), gone...)
	}
	return out, nil
}

// Delete removes a session. Deleting an unknown session succeeds.
func (s *RedisImportSessions) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(id))
		pipe.ZRem(ctx, s.indexKey(), id.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete import session: %w", err)
	}
	return nil
}

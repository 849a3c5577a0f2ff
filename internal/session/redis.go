package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"catgroom/internal/models"
)

const keyPrefix = "catgroom:session:"

// maxTxRetries bounds optimistic-transaction retries when two writers race
// on the same session key.
const maxTxRetries = 5

// RedisStore keeps sessions in Redis with a native TTL. Per-key mutual
// exclusion comes from WATCH/MULTI optimistic transactions, so mutations on
// different session ids never serialize against each other.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	sess := Session{ID: id, CreatedAt: time.Now(), Status: StatusActive}
	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	// Reads count as activity for the TTL, matching the memory store.
	if sess.Status != StatusProcessing {
		s.client.Expire(ctx, keyPrefix+id, s.ttl)
	}
	return &sess, nil
}

func (s *RedisStore) AttachImage(ctx context.Context, id string, img models.ImageAsset) (bool, error) {
	img.UploadedAt = time.Now()
	return s.mutate(ctx, id, func(sess *Session) {
		sess.Image = &img
		sess.Status = StatusProcessing
	})
}

func (s *RedisStore) LinkCat(ctx context.Context, id string, catID int64) (bool, error) {
	return s.mutate(ctx, id, func(sess *Session) {
		sess.CatID = catID
	})
}

func (s *RedisStore) SetStatus(ctx context.Context, id string, status Status) (bool, error) {
	return s.mutate(ctx, id, func(sess *Session) {
		sess.Status = status
	})
}

func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Del(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) mutate(ctx context.Context, id string, fn func(*Session)) (bool, error) {
	key := keyPrefix + id
	found := false

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return err
		}
		fn(&sess)
		found = true

		out, err := json.Marshal(&sess)
		if err != nil {
			return err
		}
		// A processing session gets a grace period of twice the TTL so
		// eviction cannot race an in-flight run.
		ttl := s.ttl
		if sess.Status == StatusProcessing {
			ttl = 2 * s.ttl
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return found, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, fmt.Errorf("update session: %w", err)
	}
	return false, fmt.Errorf("update session %s: too many conflicts", id)
}

package session

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/visadesk/visadesk/shared/redis"
)

// RedisStore keeps sessions in Redis. Cookie values are never written as
// keys; only their blake2b digest is.
type RedisStore struct {
	client goredis.Cmdable
	now    func() time.Time
}

func NewRedisStore(client goredis.Cmdable) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func hashID(id string) string {
	sum := blake2b.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

func sessionKey(hashed string) string {
	return redis.Key("session", hashed)
}

func userKey(userID string) string {
	return redis.Key("session", "user", userID)
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	hashed := hashID(s.ID)
	ttl := s.TTL(r.now())

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(hashed), data, ttl)
		pipe.SAdd(ctx, userKey(s.UserID), hashed)
		// The index lives as long as the user's longest session.
		pipe.ExpireNX(ctx, userKey(s.UserID), ttl)
		pipe.ExpireGT(ctx, userKey(s.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(hashID(id))).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	hashed := hashID(id)
	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(hashed))
		pipe.SRem(ctx, userKey(s.UserID), hashed)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteUser(ctx context.Context, userID string) (int, error) {
	members, err := r.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list user sessions: %w", err)
	}

	keys := make([]string, 0, len(members)+1)
	for _, hashed := range members {
		keys = append(keys, sessionKey(hashed))
	}

	var removed int64
	if len(keys) > 0 {
		removed, err = r.client.Del(ctx, keys...).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to delete user sessions: %w", err)
		}
	}
	if err := r.client.Del(ctx, userKey(userID)).Err(); err != nil {
		return int(removed), fmt.Errorf("failed to delete user session index: %w", err)
	}
	return int(removed), nil
}

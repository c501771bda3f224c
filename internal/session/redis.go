package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smart_wallet/internal/domain"
	"smart_wallet/internal/utils"

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"
)

const (
	KeyPrefix   = "sw_user_session:"  // Session record, one per session id
	IndexPrefix = "sw_user_sessions:" // Set of session ids per username
)

// RedisStore keeps each session as JSON with a TTL equal to the idle window
type RedisStore struct {
	rdb *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Save writes the record and adds id to the user's index. The index outlives
// every token that could still reach one of its sessions.
func (s *RedisStore) Save(ctx context.Context, id string, u domain.User, idle time.Duration) error {
	if err := utils.SetCache(ctx, s.rdb, KeyPrefix+id, u, idle); err != nil {
		return err
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, IndexPrefix+u.Username, id)
		pipe.Expire(ctx, IndexPrefix+u.Username, utils.TokenLifetime)
		return nil
	})
	if err != nil {
		return fmt.Errorf("index session: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	found, err := utils.GetCache(ctx, s.rdb, KeyPrefix+id, &u)
	switch {
	case err != nil && found:
		// Unreadable record: drop it and treat the caller as signed out
		logrus.WithFields(logrus.Fields{"session": id, "error": err.Error()}).Warn("Discarding corrupt session")
		_ = utils.DeleteCache(ctx, s.rdb, KeyPrefix+id)
		return domain.User{}, ErrExpired
	case err != nil:
		return domain.User{}, fmt.Errorf("load session: %w", err)
	case !found || u.Username == "":
		return domain.User{}, ErrExpired
	}
	return u, nil
}

func (s *RedisStore) Touch(ctx context.Context, id string, idle time.Duration) error {
	ok, err := s.rdb.Expire(ctx, KeyPrefix+id, idle).Result()
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if !ok {
		return ErrExpired
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return utils.DeleteCache(ctx, s.rdb, KeyPrefix+id)
}

// Sessions reads the user's index and drops ids that expired or now belong to
// another username
func (s *RedisStore) Sessions(ctx context.Context, username string) ([]string, error) {
	members, err := s.rdb.SMembers(ctx, IndexPrefix+username).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var ids []string
	for _, id := range members {
		u, err := s.Load(ctx, id)
		switch {
		case errors.Is(err, ErrExpired) || (err == nil && u.Username != username):
			s.rdb.SRem(ctx, IndexPrefix+username, id) // Stale entry
		case err != nil:
			return nil, err
		default:
			ids = append(ids, id)
		}
	}
	return ids, nil
}

package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
	errx "github.com/contoso-travel/chat-agent/server/internal/core/error"
	logx "github.com/contoso-travel/chat-agent/server/pkg/logger"
)

// RedisJournal keeps each session's user messages in a Redis list.
type RedisJournal struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisJournal(rdb redis.Cmdable, ttl time.Duration) *RedisJournal {
	return &RedisJournal{rdb: rdb, ttl: ttl}
}

func (j *RedisJournal) key(sessionID string) string {
	return fmt.Sprintf("session:%s:messages", sessionID)
}

func (j *RedisJournal) Append(ctx context.Context, sessionID string, message string) error {
	key := j.key(sessionID)

	if err := j.rdb.RPush(ctx, key, message).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push message to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if j.ttl > 0 {
		if ok, err := j.rdb.Expire(ctx, key, j.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", j.ttl).Msg("failed to set TTL on session key")
		}
	}
	return nil
}

func (j *RedisJournal) Load(ctx context.Context, sessionID string) ([]string, error) {
	key := j.key(sessionID)

	rows, err := j.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session messages from redis")
		return nil, errx.WrapRedis(err)
	}
	return rows, nil
}

var _ model.MessageJournal = (*RedisJournal)(nil)

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/promptlift-backend/internal/domain/guide"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

const redisKeyPrefix = "promptlift:guide:"

// RedisStore is a read-through cache in front of next. Redis failures degrade
// to a direct read; they never fail the lookup.
type RedisStore struct {
	next guide.Store
	rdb  goredis.UniversalClient
	ttl  time.Duration
	log  *logger.Logger
}

func NewRedisStore(next guide.Store, rdb goredis.UniversalClient, ttl time.Duration, log *logger.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisStore{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With("service", "RedisGuideCache"),
	}
}

func redisKey(platform string) string { return redisKeyPrefix + platform }

func (s *RedisStore) Get(ctx context.Context, platform string) (*guide.Document, error) {
	raw, err := s.rdb.Get(ctx, redisKey(platform)).Bytes()
	switch {
	case err == nil:
		doc := &guide.Document{}
		if jerr := json.Unmarshal(raw, doc); jerr == nil {
			return doc, nil
		}
		s.log.Warn("discarding undecodable cached guide", "platform", platform)
	case errors.Is(err, goredis.Nil):
	default:
		s.log.Warn("redis guide lookup failed", "platform", platform, "error", err)
	}

	doc, err := s.next.Get(ctx, platform)
	if err != nil {
		return nil, err
	}
	if encoded, jerr := json.Marshal(doc); jerr == nil {
		if serr := s.rdb.Set(ctx, redisKey(platform), encoded, s.ttl).Err(); serr != nil {
			s.log.Warn("redis guide store failed", "platform", platform, "error", serr)
		}
	}
	return doc, nil
}

func (s *RedisStore) Invalidate(ctx context.Context, platform string) error {
	return s.rdb.Del(ctx, redisKey(platform)).Err()
}

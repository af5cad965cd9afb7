package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yungbote/promptlift-backend/internal/domain/guide"
)

// LRUStore keeps recently used guides in process memory. Cached documents are
// shared between requests and must be treated as read-only.
type LRUStore struct {
	next  guide.Store
	cache *expirable.LRU[string, *guide.Document]
}

func NewLRUStore(next guide.Store, size int, ttl time.Duration) *LRUStore {
	if size <= 0 {
		size = 64
	}
	return &LRUStore{
		next:  next,
		cache: expirable.NewLRU[string, *guide.Document](size, nil, ttl),
	}
}

func (s *LRUStore) Get(ctx context.Context, platform string) (*guide.Document, error) {
	if doc, ok := s.cache.Get(platform); ok {
		return doc, nil
	}
	doc, err := s.next.Get(ctx, platform)
	if err != nil {
		return nil, err
	}
	s.cache.Add(platform, doc)
	return doc, nil
}

func (s *LRUStore) Invalidate(_ context.Context, platform string) error {
	s.cache.Remove(platform)
	return nil
}

func (s *LRUStore) Len() int { return s.cache.Len() }

package cache

import (
	"context"

	"github.com/yungbote/promptlift-backend/internal/domain/guide"
)

// Invalidator drops any cached copy of a platform's guide.
type Invalidator interface {
	Invalidate(ctx context.Context, platform string) error
}

// CachingStore is a guide.Store that can be invalidated.
type CachingStore interface {
	guide.Store
	Invalidator
}

// Chain invalidates every layer, innermost first, and returns the first error.
type Chain []Invalidator

func (c Chain) Invalidate(ctx context.Context, platform string) error {
	var firstErr error
	for i := len(c) - 1; i >= 0; i-- {
		if c[i] == nil {
			continue
		}
		if err := c[i].Invalidate(ctx, platform); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

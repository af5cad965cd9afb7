package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

// GuideInvalidation tells every replica that a platform's guide changed.
type GuideInvalidation struct {
	Platform string `json:"platform"`
	Version  int    `json:"version,omitempty"`
	Origin   string `json:"origin,omitempty"`
}

type InvalidationBus interface {
	Publish(ctx context.Context, msg GuideInvalidation) error
	StartForwarder(ctx context.Context, onMsg func(m GuideInvalidation)) error
}

type invalidationBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewInvalidationBus(log *logger.Logger, rdb *goredis.Client, channel string) (InvalidationBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "guide-invalidation"
	}
	return &invalidationBus{
		log:     log.With("service", "GuideInvalidationBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *invalidationBus) Publish(ctx context.Context, msg GuideInvalidation) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("guide invalidation bus not initialized")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *invalidationBus) StartForwarder(ctx context.Context, onMsg func(m GuideInvalidation)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("guide invalidation bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var msg GuideInvalidation
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Warn("bad guide invalidation payload", "error", err)
					continue
				}
				if msg.Platform == "" {
					continue
				}
				onMsg(msg)
			}
		}
	}()

	return nil
}

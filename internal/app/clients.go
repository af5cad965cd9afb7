package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/promptlift-backend/internal/clients/identity"
	"github.com/yungbote/promptlift-backend/internal/clients/llm"
	"github.com/yungbote/promptlift-backend/internal/clients/redis"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

type Clients struct {
	Redis           *goredis.Client
	InvalidationBus redis.InvalidationBus
	Model           llm.Generator
	Identity        identity.Lookup
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, withModel bool) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if cfg.RedisAddr != "" {
		rdb, err := redis.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
		bus, err := redis.NewInvalidationBus(log, rdb, cfg.InvalidationChannel)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init guide invalidation bus: %w", err)
		}
		out.InvalidationBus = bus
	}

	// Model
	if withModel {
		llmCfg := llm.ConfigFromEnv()
		if cfg.LLMProvider != "" && cfg.LLMProvider != llmCfg.Provider {
			llmCfg = llm.ConfigForProvider(cfg.LLMProvider)
		}
		if cfg.LLMModel != "" {
			llmCfg.Model = cfg.LLMModel
		}
		model, err := llm.New(ctx, log, llmCfg)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init llm client: %w", err)
		}
		out.Model = model
		log.Info("Model provider ready", "provider", llmCfg.Provider, "model", llmCfg.Model)
	}

	// Identity admin API
	if cfg.UserAutoCreate == "admin_lookup" {
		ic, err := identity.NewClient(log, identity.ConfigFromEnv())
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init identity client: %w", err)
		}
		out.Identity = ic
	}

	return out, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

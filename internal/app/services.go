package app

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/promptlift-backend/internal/data/cache"
	"github.com/yungbote/promptlift-backend/internal/data/repos"
	guiderepo "github.com/yungbote/promptlift-backend/internal/data/repos/guide"
	"github.com/yungbote/promptlift-backend/internal/domain/guide"
	"github.com/yungbote/promptlift-backend/internal/modules/enhance"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
	"github.com/yungbote/promptlift-backend/internal/services"
)

type Services struct {
	Credits services.CreditService
	Guides  services.GuideService
	Enhance services.EnhanceService
}

// guideStore builds the read path: db, then redis, then the in-process LRU.
func guideStore(log *logger.Logger, cfg Config, reposet repos.Repos, clients Clients) (guide.Store, cache.Invalidator) {
	var (
		store  guide.Store = guiderepo.NewStore(reposet.Guide)
		layers cache.Chain
	)
	if clients.Redis != nil {
		rs := cache.NewRedisStore(store, clients.Redis, cfg.GuideCacheTTL, log)
		store = rs
		layers = append(cache.Chain{rs}, layers...)
	}
	if cfg.GuideLRUSize > 0 {
		lru := cache.NewLRUStore(store, cfg.GuideLRUSize, cfg.GuideLRUTTL)
		store = lru
		layers = append(cache.Chain{lru}, layers...)
	}
	return store, layers
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet repos.Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	strategy, err := enhance.NewStrategy(cfg.InstructionStrategy)
	if err != nil {
		return Services{}, fmt.Errorf("instruction strategy: %w", err)
	}

	store, invalidator := guideStore(log, cfg, reposet, clients)
	guides := services.NewGuideService(db, log, reposet.Guide, store, invalidator, clients.InvalidationBus, uuid.New().String())

	credits := services.NewCreditService(db, log, reposet.User, clients.Identity, services.CreditPolicy{
		DailyCredits: cfg.DailyCredits,
		AutoCreate:   cfg.UserAutoCreate,
	})

	modelTimeout := cfg.ModelTimeout
	if modelTimeout <= 0 {
		modelTimeout = 60 * time.Second
	}
	enh := services.NewEnhanceService(log, enhance.NewEngine(strategy), clients.Model, credits, guides, services.EnhanceOptions{
		CreditCheckOrder: cfg.CreditCheckOrder,
		ModelTimeout:     modelTimeout,
	})

	log.Info("Instruction strategy selected", "strategy", strategy.Name(), "credit_check_order", cfg.CreditCheckOrder)
	return Services{Credits: credits, Guides: guides, Enhance: enh}, nil
}

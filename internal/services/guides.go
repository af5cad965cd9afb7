package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	redisclient "github.com/yungbote/promptlift-backend/internal/clients/redis"
	"github.com/yungbote/promptlift-backend/internal/data/cache"
	"github.com/yungbote/promptlift-backend/internal/data/repos"
	types "github.com/yungbote/promptlift-backend/internal/domain"
	"github.com/yungbote/promptlift-backend/internal/domain/guide"
	"github.com/yungbote/promptlift-backend/internal/modules/enhance"
	"github.com/yungbote/promptlift-backend/internal/modules/guidesource"
	"github.com/yungbote/promptlift-backend/internal/observability"
	"github.com/yungbote/promptlift-backend/internal/platform/apierr"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

// GuideService resolves platform names to guide documents and keeps the
// cache layers consistent with writes.
type GuideService interface {
	Get(ctx context.Context, platform string) (string, *guide.Document, error)
	List(ctx context.Context) ([]*types.PlatformGuide, error)
	Put(ctx context.Context, platform string, doc *guide.Document) (*types.PlatformGuide, error)
	Delete(ctx context.Context, platform string) error
	Apply(ctx context.Context, entries []guidesource.Entry) error
	HandleInvalidation(ctx context.Context, msg redisclient.GuideInvalidation)
}

type guideService struct {
	db          *gorm.DB
	log         *logger.Logger
	guideRepo   repos.GuideRepo
	store       guide.Store
	invalidator cache.Invalidator
	bus         redisclient.InvalidationBus
	origin      string
}

// NewGuideService reads through store (the outermost cache layer) and writes
// through guideRepo. invalidator and bus may be nil.
func NewGuideService(db *gorm.DB, baseLog *logger.Logger, guideRepo repos.GuideRepo, store guide.Store, invalidator cache.Invalidator, bus redisclient.InvalidationBus, origin string) GuideService {
	return &guideService{
		db:          db,
		log:         baseLog.With("service", "GuideService"),
		guideRepo:   guideRepo,
		store:       store,
		invalidator: invalidator,
		bus:         bus,
		origin:      origin,
	}
}

func (s *guideService) Get(ctx context.Context, platform string) (string, *guide.Document, error) {
	canonical := enhance.NormalizePlatform(platform)
	if canonical == "" {
		return "", nil, apierr.BadRequest(fmt.Errorf("platform is required"))
	}
	ctx, span := observability.StartSpan(ctx, "guide.get")
	defer span.End()

	doc, err := s.store.Get(ctx, canonical)
	switch {
	case errors.Is(err, guide.ErrNotFound):
		observability.Current().IncGuideLookup("not_found")
		return canonical, nil, apierr.NotFound(apierr.CodeGuideNotFound, fmt.Errorf("no guide for platform %q", canonical))
	case err != nil:
		observability.Current().IncGuideLookup("error")
		span.RecordError(err)
		s.log.Error("guide lookup failed", "platform", canonical, "error", err)
		return canonical, nil, apierr.Upstream(fmt.Errorf("get guide: %w", err))
	}
	observability.Current().IncGuideLookup("found")
	return canonical, doc, nil
}

func (s *guideService) List(ctx context.Context) ([]*types.PlatformGuide, error) {
	rows, err := s.guideRepo.List(ctx, s.db)
	if err != nil {
		return nil, apierr.Upstream(fmt.Errorf("list guides: %w", err))
	}
	return rows, nil
}

func (s *guideService) Put(ctx context.Context, platform string, doc *guide.Document) (*types.PlatformGuide, error) {
	canonical := enhance.NormalizePlatform(platform)
	if canonical == "" {
		return nil, apierr.BadRequest(fmt.Errorf("platform is required"))
	}
	row, err := guide.Encode(canonical, doc)
	if err != nil {
		return nil, apierr.BadRequest(fmt.Errorf("encode guide: %w", err))
	}
	saved, err := s.guideRepo.Upsert(ctx, s.db, row)
	if err != nil {
		s.log.Error("guide upsert failed", "platform", canonical, "error", err)
		return nil, apierr.Upstream(fmt.Errorf("upsert guide: %w", err))
	}
	s.invalidate(ctx, canonical, saved.Version)
	s.log.Info("guide stored", "platform", canonical, "version", saved.Version)
	return saved, nil
}

func (s *guideService) Delete(ctx context.Context, platform string) error {
	canonical := enhance.NormalizePlatform(platform)
	if canonical == "" {
		return apierr.BadRequest(fmt.Errorf("platform is required"))
	}
	err := s.guideRepo.Delete(ctx, s.db, canonical)
	if errors.Is(err, guide.ErrNotFound) {
		return apierr.NotFound(apierr.CodeGuideNotFound, err)
	}
	if err != nil {
		return apierr.Upstream(fmt.Errorf("delete guide: %w", err))
	}
	s.invalidate(ctx, canonical, 0)
	return nil
}

// Apply upserts every entry and stops at the first failure.
func (s *guideService) Apply(ctx context.Context, entries []guidesource.Entry) error {
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.Put(ctx, e.Platform, e.Document); err != nil {
			return fmt.Errorf("apply %s (%s): %w", e.Platform, e.Source, err)
		}
	}
	s.log.Info("guides applied", "count", len(entries))
	return nil
}

// HandleInvalidation drops local cache entries for a change made by another replica.
func (s *guideService) HandleInvalidation(ctx context.Context, msg redisclient.GuideInvalidation) {
	if msg.Origin != "" && msg.Origin == s.origin {
		return
	}
	platform := strings.TrimSpace(msg.Platform)
	if platform == "" || s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, platform); err != nil {
		s.log.Warn("remote guide invalidation failed", "platform", platform, "error", err)
	}
}

func (s *guideService) invalidate(ctx context.Context, platform string, version int) {
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, platform); err != nil {
			s.log.Warn("guide cache invalidation failed", "platform", platform, "error", err)
		}
	}
	if s.bus != nil {
		msg := redisclient.GuideInvalidation{Platform: platform, Version: version, Origin: s.origin}
		if err := s.bus.Publish(ctx, msg); err != nil {
			s.log.Warn("guide invalidation publish failed", "platform", platform, "error", err)
		}
	}
}

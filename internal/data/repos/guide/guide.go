package guide

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/promptlift-backend/internal/domain"
	domainguide "github.com/yungbote/promptlift-backend/internal/domain/guide"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

type GuideRepo interface {
	Get(ctx context.Context, tx *gorm.DB, platform string) (*types.PlatformGuide, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.PlatformGuide, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.PlatformGuide) (*types.PlatformGuide, error)
	Delete(ctx context.Context, tx *gorm.DB, platform string) error
}

type guideRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGuideRepo(db *gorm.DB, baseLog *logger.Logger) GuideRepo {
	repoLog := baseLog.With("repo", "GuideRepo")
	return &guideRepo{db: db, log: repoLog}
}

func (r *guideRepo) Get(ctx context.Context, tx *gorm.DB, platform string) (*types.PlatformGuide, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.PlatformGuide
	err := transaction.WithContext(ctx).
		Where("platform = ?", platform).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Platform == "" {
		return nil, domainguide.ErrNotFound
	}
	return &row, nil
}

func (r *guideRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.PlatformGuide, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.PlatformGuide
	if err := transaction.WithContext(ctx).
		Order("platform ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Upsert inserts the row or replaces the stored document, bumping its version.
func (r *guideRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.PlatformGuide) (*types.PlatformGuide, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || strings.TrimSpace(row.Platform) == "" {
		return nil, fmt.Errorf("upsert guide: platform is required")
	}

	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	if row.Version == 0 {
		row.Version = 1
	}

	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "platform"}},
			DoUpdates: clause.Assignments(map[string]any{
				"document":   row.Document,
				"version":    gorm.Expr("platform_guide.version + 1"),
				"updated_at": now,
			}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, transaction, row.Platform)
}

func (r *guideRepo) Delete(ctx context.Context, tx *gorm.DB, platform string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("platform = ?", platform).
		Delete(&types.PlatformGuide{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainguide.ErrNotFound
	}
	return nil
}

// store adapts a GuideRepo to domainguide.Store.
type store struct {
	repo GuideRepo
}

func NewStore(repo GuideRepo) domainguide.Store {
	return &store{repo: repo}
}

func (s *store) Get(ctx context.Context, platform string) (*domainguide.Document, error) {
	row, err := s.repo.Get(ctx, nil, platform)
	if err != nil {
		if errors.Is(err, domainguide.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load guide %q: %w", platform, err)
	}
	doc, err := row.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode guide %q: %w", platform, err)
	}
	return doc, nil
}

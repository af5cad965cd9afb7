package user

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/promptlift-backend/internal/domain"
	domainuser "github.com/yungbote/promptlift-backend/internal/domain/user"
	pkgerrors "github.com/yungbote/promptlift-backend/internal/pkg/errors"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

type UserRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, userID string) (*types.User, error)
	Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error)
	ResetCredits(ctx context.Context, tx *gorm.DB, userID string, amount int, at time.Time) error
	DecrementCredit(ctx context.Context, tx *gorm.DB, userID string) (int, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) GetByID(ctx context.Context, tx *gorm.DB, userID string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User
	if err := transaction.WithContext(ctx).
		Where("id = ?", userID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domainuser.ErrNotFound
	}
	return results[0], nil
}

// Create inserts user. A duplicate id or email surfaces as the driver's
// unique-violation error; callers check it with db.IsUniqueViolation.
func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("create user: %w", pkgerrors.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	if user.LastCreditReset.IsZero() {
		user.LastCreditReset = now
	}
	if err := transaction.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (ur *userRepo) ResetCredits(ctx context.Context, tx *gorm.DB, userID string, amount int, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"credits_remaining": amount,
			"last_credit_reset": at.UTC(),
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainuser.ErrNotFound
	}
	return nil
}

// DecrementCredit takes one credit and returns what is left. The update only
// applies while credits remain, so the balance never goes negative.
func (ur *userRepo) DecrementCredit(ctx context.Context, tx *gorm.DB, userID string) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ? AND credits_remaining > 0", userID).
		Updates(map[string]any{
			"credits_remaining": gorm.Expr("credits_remaining - 1"),
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}

	u, err := ur.GetByID(ctx, transaction, userID)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected == 0 {
		return u.CreditsRemaining, pkgerrors.ErrNoCredits
	}
	return u.CreditsRemaining, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/promptlift-backend/internal/clients/identity"
	"github.com/yungbote/promptlift-backend/internal/data/db"
	"github.com/yungbote/promptlift-backend/internal/data/repos"
	types "github.com/yungbote/promptlift-backend/internal/domain"
	domainuser "github.com/yungbote/promptlift-backend/internal/domain/user"
	"github.com/yungbote/promptlift-backend/internal/observability"
	pkgerrors "github.com/yungbote/promptlift-backend/internal/pkg/errors"
	"github.com/yungbote/promptlift-backend/internal/platform/apierr"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

const (
	AutoCreatePlaceholder = "placeholder"
	AutoCreateAdminLookup = "admin_lookup"
	AutoCreateDisabled    = "disabled"

	placeholderEmailDomain = "users.placeholder.local"
)

type CreditPolicy struct {
	DailyCredits int
	AutoCreate   string
}

func (p CreditPolicy) normalized() CreditPolicy {
	if p.DailyCredits <= 0 {
		p.DailyCredits = 10
	}
	switch strings.ToLower(strings.TrimSpace(p.AutoCreate)) {
	case AutoCreateAdminLookup:
		p.AutoCreate = AutoCreateAdminLookup
	case AutoCreateDisabled:
		p.AutoCreate = AutoCreateDisabled
	default:
		p.AutoCreate = AutoCreatePlaceholder
	}
	return p
}

// CreditService owns the daily credit gate.
type CreditService interface {
	// Status fetches (or auto-creates) the user and applies a due daily reset.
	Status(ctx context.Context, userID string) (*types.User, error)
	// Check is Status plus the zero-credit rejection.
	Check(ctx context.Context, userID string) (*types.User, error)
	// Consume takes one credit from a non-unlimited user and returns what is left.
	Consume(ctx context.Context, u *types.User) (int, error)
}

type creditService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	lookup   identity.Lookup
	policy   CreditPolicy
	now      func() time.Time
}

// NewCreditService wires the gate. lookup is only consulted under the
// admin_lookup policy and may be nil otherwise.
func NewCreditService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo, lookup identity.Lookup, policy CreditPolicy) CreditService {
	policy = policy.normalized()
	log := baseLog.With("service", "CreditService")
	if policy.AutoCreate == AutoCreateAdminLookup && lookup == nil {
		log.Warn("admin_lookup auto-create configured without an identity client; unknown users will be rejected")
	}
	return &creditService{
		db:       db,
		log:      log,
		userRepo: userRepo,
		lookup:   lookup,
		policy:   policy,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *creditService) Status(ctx context.Context, userID string) (*types.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apierr.BadRequest(fmt.Errorf("userId is required"))
	}
	u, err := s.fetchOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if u.DueForReset(now) {
		if err := s.userRepo.ResetCredits(ctx, s.db, u.ID, s.policy.DailyCredits, now); err != nil {
			s.log.Error("daily credit reset failed", "user_id", u.ID, "error", err)
			return nil, apierr.Upstream(fmt.Errorf("reset credits: %w", err))
		}
		u.CreditsRemaining = s.policy.DailyCredits
		u.LastCreditReset = now
		s.log.Debug("daily credits reset", "user_id", u.ID, "credits", s.policy.DailyCredits)
	}
	return u, nil
}

func (s *creditService) Check(ctx context.Context, userID string) (*types.User, error) {
	u, err := s.Status(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.HasUnlimitedAccess && u.CreditsRemaining <= 0 {
		observability.Current().IncCreditRejection("exhausted")
		return nil, apierr.NoCredits(pkgerrors.ErrNoCredits)
	}
	return u, nil
}

func (s *creditService) Consume(ctx context.Context, u *types.User) (int, error) {
	if u == nil {
		return 0, apierr.Internal(fmt.Errorf("consume: nil user"))
	}
	if u.HasUnlimitedAccess {
		return u.CreditsRemaining, nil
	}
	remaining, err := s.userRepo.DecrementCredit(ctx, s.db, u.ID)
	if errors.Is(err, pkgerrors.ErrNoCredits) {
		// Another request took the last credit between Check and Consume.
		observability.Current().IncCreditRejection("race")
		return 0, apierr.NoCredits(err)
	}
	if err != nil {
		s.log.Error("credit decrement failed", "user_id", u.ID, "error", err)
		return 0, apierr.Upstream(fmt.Errorf("decrement credit: %w", err))
	}
	u.CreditsRemaining = remaining
	return remaining, nil
}

func (s *creditService) fetchOrCreate(ctx context.Context, userID string) (*types.User, error) {
	u, err := s.userRepo.GetByID(ctx, s.db, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domainuser.ErrNotFound) {
		s.log.Error("user lookup failed", "user_id", userID, "error", err)
		return nil, apierr.Upstream(fmt.Errorf("get user: %w", err))
	}

	email, err := s.emailFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	created, err := s.userRepo.Create(ctx, s.db, &types.User{
		ID:               userID,
		Email:            email,
		CreditsRemaining: s.policy.DailyCredits,
		LastCreditReset:  s.now(),
	})
	if err == nil {
		s.log.Info("user auto-created", "user_id", userID, "policy", s.policy.AutoCreate)
		return created, nil
	}
	if !db.IsUniqueViolation(err) {
		s.log.Error("user auto-create failed", "user_id", userID, "error", err)
		return nil, apierr.Upstream(fmt.Errorf("create user: %w", err))
	}

	// A concurrent request created the row first.
	u, err = s.userRepo.GetByID(ctx, s.db, userID)
	if err != nil {
		s.log.Error("user re-fetch after duplicate create failed", "user_id", userID, "error", err)
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, apierr.NotFound(apierr.CodeUserNotFound, err)
		}
		return nil, apierr.Upstream(fmt.Errorf("re-fetch user: %w", err))
	}
	return u, nil
}

func (s *creditService) emailFor(ctx context.Context, userID string) (string, error) {
	switch s.policy.AutoCreate {
	case AutoCreateDisabled:
		return "", apierr.NotFound(apierr.CodeUserNotFound, domainuser.ErrNotFound)
	case AutoCreateAdminLookup:
		if s.lookup == nil {
			return "", apierr.NotFound(apierr.CodeUserNotFound, domainuser.ErrNotFound)
		}
		p, err := s.lookup.LookupUser(ctx, userID)
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return "", apierr.NotFound(apierr.CodeUserNotFound, domainuser.ErrNotFound)
		}
		if err != nil {
			s.log.Error("identity lookup failed", "user_id", userID, "error", err)
			return "", apierr.Upstream(err)
		}
		return p.Email, nil
	default:
		return PlaceholderEmail(userID), nil
	}
}

// PlaceholderEmail is the synthetic address given to auto-created users.
func PlaceholderEmail(userID string) string {
	return userID + "@" + placeholderEmailDomain
}

package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/promptlift-backend/internal/domain"
	"github.com/yungbote/promptlift-backend/internal/domain/guide"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, id, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:               id,
		Email:            email,
		CreditsRemaining: 10,
		LastCreditReset:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedGuide(tb testing.TB, ctx context.Context, tx *gorm.DB, platform string, doc *guide.Document) *types.PlatformGuide {
	tb.Helper()
	row, err := guide.Encode(platform, doc)
	if err != nil {
		tb.Fatalf("encode guide: %v", err)
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed guide: %v", err)
	}
	return row
}

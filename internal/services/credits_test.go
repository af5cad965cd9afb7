package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	types "github.com/yungbote/promptlift-backend/internal/domain"
	"github.com/yungbote/promptlift-backend/internal/platform/apierr"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestCreditService(repo *fakeUserRepo, policy CreditPolicy) *creditService {
	svc := NewCreditService(nil, logger.Nop(), repo, nil, policy).(*creditService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func wantAPIErr(t *testing.T, err error, status int, code string) {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apierr.Error, got %v", err)
	}
	if ae.Status != status || ae.Code != code {
		t.Fatalf("expected %d/%s, got %d/%s (%v)", status, code, ae.Status, ae.Code, ae.Err)
	}
}

func TestCreditStatusDailyReset(t *testing.T) {
	cases := []struct {
		name      string
		lastReset time.Time
		credits   int
		want      int
		wantReset bool
	}{
		{name: "exactly 24h", lastReset: fixedNow.Add(-24 * time.Hour), credits: 0, want: 10, wantReset: true},
		{name: "two days", lastReset: fixedNow.Add(-49 * time.Hour), credits: 3, want: 10, wantReset: true},
		{name: "not yet due", lastReset: fixedNow.Add(-23*time.Hour - 59*time.Minute), credits: 0, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeUserRepo(&types.User{ID: "u1", Email: "u1@x.io", CreditsRemaining: tc.credits, LastCreditReset: tc.lastReset})
			svc := newTestCreditService(repo, CreditPolicy{})
			u, err := svc.Status(context.Background(), "u1")
			if err != nil {
				t.Fatalf("Status: %v", err)
			}
			if u.CreditsRemaining != tc.want {
				t.Fatalf("credits = %d, want %d", u.CreditsRemaining, tc.want)
			}
			if (repo.resets == 1) != tc.wantReset {
				t.Fatalf("resets = %d, wantReset %v", repo.resets, tc.wantReset)
			}
			if tc.wantReset && !repo.user("u1").LastCreditReset.Equal(fixedNow) {
				t.Fatalf("last_credit_reset not advanced")
			}
		})
	}
}

func TestCreditCheckRejectsExhausted(t *testing.T) {
	repo := newFakeUserRepo(
		&types.User{ID: "empty", CreditsRemaining: 0, LastCreditReset: fixedNow},
		&types.User{ID: "vip", CreditsRemaining: 0, HasUnlimitedAccess: true, LastCreditReset: fixedNow},
	)
	svc := newTestCreditService(repo, CreditPolicy{})

	_, err := svc.Check(context.Background(), "empty")
	wantAPIErr(t, err, http.StatusForbidden, apierr.CodeNoCredits)

	u, err := svc.Check(context.Background(), "vip")
	if err != nil {
		t.Fatalf("unlimited user rejected: %v", err)
	}
	remaining, err := svc.Consume(context.Background(), u)
	if err != nil || remaining != 0 || repo.decrements != 0 {
		t.Fatalf("unlimited consume: remaining=%d decrements=%d err=%v", remaining, repo.decrements, err)
	}
}

func TestCreditConsumeLostRace(t *testing.T) {
	repo := newFakeUserRepo(&types.User{ID: "u1", CreditsRemaining: 1, LastCreditReset: fixedNow})
	svc := newTestCreditService(repo, CreditPolicy{})
	ctx := context.Background()

	a, _ := svc.Check(ctx, "u1")
	b, _ := svc.Check(ctx, "u1")
	if _, err := svc.Consume(ctx, a); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	_, err := svc.Consume(ctx, b)
	wantAPIErr(t, err, http.StatusForbidden, apierr.CodeNoCredits)
	if got := repo.user("u1").CreditsRemaining; got != 0 {
		t.Fatalf("balance went to %d", got)
	}
}

func TestCreditAutoCreatePolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("placeholder", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc := newTestCreditService(repo, CreditPolicy{DailyCredits: 5})
		u, err := svc.Status(ctx, "new-user")
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if u.Email != "new-user@users.placeholder.local" || u.CreditsRemaining != 5 {
			t.Fatalf("unexpected user %+v", u)
		}
		if repo.user("new-user") == nil {
			t.Fatalf("user not persisted")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc := newTestCreditService(repo, CreditPolicy{AutoCreate: AutoCreateDisabled})
		_, err := svc.Status(ctx, "ghost")
		wantAPIErr(t, err, http.StatusNotFound, apierr.CodeUserNotFound)
		if repo.user("ghost") != nil {
			t.Fatalf("disabled policy must not create users")
		}
	})

	t.Run("admin lookup", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc := newTestCreditService(repo, CreditPolicy{AutoCreate: AutoCreateAdminLookup})
		svc.lookup = fakeLookup{profiles: map[string]string{"known": "known@example.com"}}

		u, err := svc.Status(ctx, "known")
		if err != nil || u.Email != "known@example.com" {
			t.Fatalf("known: %+v %v", u, err)
		}
		_, err = svc.Status(ctx, "stranger")
		wantAPIErr(t, err, http.StatusNotFound, apierr.CodeUserNotFound)

		svc.lookup = fakeLookup{err: errors.New("identity down")}
		_, err = svc.Status(ctx, "other")
		wantAPIErr(t, err, http.StatusInternalServerError, apierr.CodeUpstream)
	})

	t.Run("duplicate create re-fetches", func(t *testing.T) {
		repo := newFakeUserRepo()
		repo.createFirst = func(u *types.User) {
			repo.users[u.ID] = &types.User{ID: u.ID, Email: "winner@example.com", CreditsRemaining: 7, LastCreditReset: fixedNow}
		}
		svc := newTestCreditService(repo, CreditPolicy{})
		u, err := svc.Status(ctx, "racer")
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if u.Email != "winner@example.com" || u.CreditsRemaining != 7 {
			t.Fatalf("expected the concurrently created row, got %+v", u)
		}
	})

	t.Run("create failure", func(t *testing.T) {
		repo := newFakeUserRepo()
		repo.createErr = errors.New("connection reset")
		svc := newTestCreditService(repo, CreditPolicy{})
		_, err := svc.Status(ctx, "x")
		wantAPIErr(t, err, http.StatusInternalServerError, apierr.CodeUpstream)
	})
}

func TestCreditStatusStoreFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.getErr = errors.New("db down")
	svc := newTestCreditService(repo, CreditPolicy{})
	_, err := svc.Status(context.Background(), "u1")
	wantAPIErr(t, err, http.StatusInternalServerError, apierr.CodeUpstream)

	_, err = svc.Status(context.Background(), "  ")
	wantAPIErr(t, err, http.StatusBadRequest, apierr.CodeInvalidRequest)
}

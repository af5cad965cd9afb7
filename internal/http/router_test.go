package http

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	redisclient "github.com/yungbote/promptlift-backend/internal/clients/redis"
	types "github.com/yungbote/promptlift-backend/internal/domain"
	"github.com/yungbote/promptlift-backend/internal/domain/guide"
	httpH "github.com/yungbote/promptlift-backend/internal/http/handlers"
	httpMW "github.com/yungbote/promptlift-backend/internal/http/middleware"
	"github.com/yungbote/promptlift-backend/internal/modules/guidesource"
	"github.com/yungbote/promptlift-backend/internal/observability"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
	"github.com/yungbote/promptlift-backend/internal/services"
)

type okCredits struct{}

func (okCredits) Status(ctx context.Context, userID string) (*types.User, error) {
	return &types.User{ID: userID, CreditsRemaining: 10}, nil
}
func (okCredits) Check(ctx context.Context, userID string) (*types.User, error) {
	return &types.User{ID: userID, CreditsRemaining: 10}, nil
}
func (okCredits) Consume(ctx context.Context, u *types.User) (int, error) { return 9, nil }

var _ services.CreditService = okCredits{}

func token(t *testing.T, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestRouterAuthAndOperationalRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am, err := httpMW.NewAuthMiddleware(logger.Nop(), httpMW.AuthConfig{Secret: "s3cret"})
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	metrics := observability.New()
	r := NewRouter(RouterConfig{
		Log:            logger.Nop(),
		AuthMiddleware: am,
		Metrics:        metrics,
		CreditsHandler: httpH.NewCreditsHandler(okCredits{}),
		HealthHandler:  httpH.NewHealthHandler(nil),
	})

	do := func(path, bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(nethttp.MethodGet, path, nil)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("/healthcheck", ""); rec.Code != nethttp.StatusOK {
		t.Fatalf("healthcheck behind auth: %d", rec.Code)
	}
	if rec := do("/api/credits/u1", ""); rec.Code != nethttp.StatusUnauthorized {
		t.Fatalf("missing token: %d", rec.Code)
	}
	if rec := do("/api/credits/u1", token(t, "u2")); rec.Code != nethttp.StatusForbidden {
		t.Fatalf("subject mismatch: %d", rec.Code)
	}
	if rec := do("/api/credits/u1", token(t, "u1")); rec.Code != nethttp.StatusOK {
		t.Fatalf("matching subject: %d %s", rec.Code, rec.Body.String())
	}

	rec := do("/metrics", "")
	if rec.Code != nethttp.StatusOK || !strings.Contains(rec.Body.String(), "pl_api_requests_total") {
		t.Fatalf("metrics exposition missing api counter: %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}
}

type writableGuides struct{ puts, deletes int }

func (g *writableGuides) Get(ctx context.Context, platform string) (string, *guide.Document, error) {
	return platform, &guide.Document{}, nil
}
func (g *writableGuides) List(ctx context.Context) ([]*types.PlatformGuide, error) { return nil, nil }
func (g *writableGuides) Put(ctx context.Context, platform string, doc *guide.Document) (*types.PlatformGuide, error) {
	g.puts++
	return &types.PlatformGuide{Platform: platform, Version: 1}, nil
}
func (g *writableGuides) Delete(ctx context.Context, platform string) error {
	g.deletes++
	return nil
}
func (g *writableGuides) Apply(ctx context.Context, entries []guidesource.Entry) error { return nil }
func (g *writableGuides) HandleInvalidation(ctx context.Context, msg redisclient.GuideInvalidation) {
}

func TestRouterGuideWritesNeedAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am, err := httpMW.NewAuthMiddleware(logger.Nop(), httpMW.AuthConfig{Secret: "s3cret"})
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	adminToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "ops",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	build := func(gate gin.HandlerFunc) (*gin.Engine, *writableGuides) {
		g := &writableGuides{}
		return NewRouter(RouterConfig{
			Log:            logger.Nop(),
			AuthMiddleware: am,
			AdminGate:      gate,
			GuideHandler:   httpH.NewGuideHandler(g),
		}), g
	}
	do := func(r *gin.Engine, method, bearer string) int {
		req := httptest.NewRequest(method, "/api/guides/gpt", strings.NewReader(`{"principles":[{"title":"t","content":"c"}]}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+bearer)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	r, g := build(httpMW.RequireAdmin(nil, httpMW.AdminConfig{Role: "admin"}))
	if code := do(r, nethttp.MethodGet, token(t, "u1")); code != nethttp.StatusOK {
		t.Fatalf("guide read by user: %d", code)
	}
	if code := do(r, nethttp.MethodPut, token(t, "u1")); code != nethttp.StatusForbidden {
		t.Fatalf("guide put by user: %d", code)
	}
	if code := do(r, nethttp.MethodDelete, token(t, "u1")); code != nethttp.StatusForbidden {
		t.Fatalf("guide delete by user: %d", code)
	}
	if g.puts != 0 || g.deletes != 0 {
		t.Fatalf("service reached by non-admin: puts=%d deletes=%d", g.puts, g.deletes)
	}
	if code := do(r, nethttp.MethodPut, adminToken); code != nethttp.StatusOK {
		t.Fatalf("guide put by admin: %d", code)
	}
	if code := do(r, nethttp.MethodDelete, adminToken); code != nethttp.StatusNoContent {
		t.Fatalf("guide delete by admin: %d", code)
	}

	r, g = build(nil)
	if code := do(r, nethttp.MethodPut, adminToken); code != nethttp.StatusForbidden || g.puts != 0 {
		t.Fatalf("writes should be refused without a configured gate: %d", code)
	}
}

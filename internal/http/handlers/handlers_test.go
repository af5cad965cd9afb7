package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	redisclient "github.com/yungbote/promptlift-backend/internal/clients/redis"
	types "github.com/yungbote/promptlift-backend/internal/domain"
	"github.com/yungbote/promptlift-backend/internal/domain/guide"
	"github.com/yungbote/promptlift-backend/internal/modules/enhance"
	"github.com/yungbote/promptlift-backend/internal/modules/guidesource"
	"github.com/yungbote/promptlift-backend/internal/platform/apierr"
	"github.com/yungbote/promptlift-backend/internal/platform/ctxutil"
	"github.com/yungbote/promptlift-backend/internal/services"
)

type stubEnhance struct {
	res   *services.EnhanceResult
	err   error
	calls int
	got   services.EnhanceRequest
}

func (s *stubEnhance) Enhance(ctx context.Context, req services.EnhanceRequest) (*services.EnhanceResult, error) {
	s.calls++
	s.got = req
	return s.res, s.err
}

func (s *stubEnhance) Classify(ctx context.Context, prompt string) (*services.Classification, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, apierr.BadRequest(errors.New("prompt is required"))
	}
	return &services.Classification{Complexity: enhance.ComplexitySimple, Rule: "short_but_clear", TaskType: enhance.TaskCodeGeneration}, nil
}

type stubCredits struct {
	user *types.User
	err  error
}

func (s stubCredits) Status(ctx context.Context, userID string) (*types.User, error) {
	return s.user, s.err
}
func (s stubCredits) Check(ctx context.Context, userID string) (*types.User, error) {
	return s.user, s.err
}
func (s stubCredits) Consume(ctx context.Context, u *types.User) (int, error) { return 0, nil }

type stubGuides struct {
	docs map[string]*guide.Document
	put  *guide.Document
}

func (s *stubGuides) Get(ctx context.Context, platform string) (string, *guide.Document, error) {
	canonical := enhance.NormalizePlatform(platform)
	if d, ok := s.docs[canonical]; ok {
		return canonical, d, nil
	}
	return canonical, nil, apierr.NotFound(apierr.CodeGuideNotFound, guide.ErrNotFound)
}

func (s *stubGuides) List(ctx context.Context) ([]*types.PlatformGuide, error) {
	return []*types.PlatformGuide{{Platform: enhance.PlatformGPT, Version: 3, UpdatedAt: time.Unix(0, 0)}}, nil
}

func (s *stubGuides) Put(ctx context.Context, platform string, doc *guide.Document) (*types.PlatformGuide, error) {
	s.put = doc
	return &types.PlatformGuide{Platform: enhance.NormalizePlatform(platform), Version: 1}, nil
}

func (s *stubGuides) Delete(ctx context.Context, platform string) error { return nil }

func (s *stubGuides) Apply(ctx context.Context, entries []guidesource.Entry) error { return nil }

func (s *stubGuides) HandleInvalidation(ctx context.Context, msg redisclient.GuideInvalidation) {}

func serve(t *testing.T, method, path, body string, register func(r *gin.Engine), subject string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if subject != "" {
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(ctxutil.WithAuthData(c.Request.Context(), &ctxutil.AuthData{Subject: subject}))
			c.Next()
		})
	}
	register(r)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, rec)
	env, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("missing error envelope: %s", rec.Body.String())
	}
	code, _ := env["code"].(string)
	return code
}

func TestEnhanceHandler(t *testing.T) {
	stub := &stubEnhance{res: &services.EnhanceResult{EnhancedPrompt: "better", CreditsRemaining: 4}}
	h := NewEnhanceHandler(stub)
	register := func(r *gin.Engine) { r.POST("/api/enhance", h.Enhance) }

	rec := serve(t, http.MethodPost, "/api/enhance", `{"platform":"claude","prompt":"fix it","userId":"u1"}`, register, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["enhanced_prompt"] != "better" || body["credits_remaining"] != float64(4) || body["has_unlimited_access"] != false {
		t.Fatalf("unexpected body %v", body)
	}
	if stub.got.UserID != "u1" || stub.got.Platform != "claude" {
		t.Fatalf("request not forwarded: %+v", stub.got)
	}

	stub.res = &services.EnhanceResult{EnhancedPrompt: "better", HasUnlimitedAccess: true}
	body = decode(t, serve(t, http.MethodPost, "/api/enhance", `{"platform":"claude","prompt":"fix it","userId":"u1"}`, register, ""))
	if body["credits_remaining"] != "unlimited" || body["has_unlimited_access"] != true {
		t.Fatalf("unlimited not rendered: %v", body)
	}
}

func TestEnhanceHandlerErrors(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		err     error
		subject string
		status  int
		code    string
	}{
		{name: "malformed json", body: `{"platform":`, status: http.StatusBadRequest, code: apierr.CodeInvalidRequest},
		{name: "no credits", body: `{"platform":"p","prompt":"x","userId":"u1"}`, err: apierr.NoCredits(errors.New("none")), status: http.StatusForbidden, code: apierr.CodeNoCredits},
		{name: "guide missing", body: `{"platform":"p","prompt":"x","userId":"u1"}`, err: apierr.NotFound(apierr.CodeGuideNotFound, errors.New("nope")), status: http.StatusNotFound, code: apierr.CodeGuideNotFound},
		{name: "upstream", body: `{"platform":"p","prompt":"x","userId":"u1"}`, err: apierr.Upstream(errors.New("provider said 503 with key sk-123")), status: http.StatusInternalServerError, code: apierr.CodeUpstream},
		{name: "plain error", body: `{"platform":"p","prompt":"x","userId":"u1"}`, err: errors.New("boom"), status: http.StatusInternalServerError, code: apierr.CodeInternal},
		{name: "subject mismatch", body: `{"platform":"p","prompt":"x","userId":"u1"}`, subject: "u2", status: http.StatusForbidden, code: apierr.CodeForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubEnhance{err: tc.err, res: &services.EnhanceResult{}}
			h := NewEnhanceHandler(stub)
			rec := serve(t, http.MethodPost, "/api/enhance", tc.body, func(r *gin.Engine) { r.POST("/api/enhance", h.Enhance) }, tc.subject)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			if got := errorCode(t, rec); got != tc.code {
				t.Fatalf("code = %s, want %s", got, tc.code)
			}
			if tc.status >= 500 && strings.Contains(rec.Body.String(), "sk-123") {
				t.Fatalf("upstream detail leaked: %s", rec.Body.String())
			}
			if tc.subject != "" && stub.calls != 0 {
				t.Fatalf("service called despite subject mismatch")
			}
		})
	}
}

func TestClassifyHandler(t *testing.T) {
	h := NewEnhanceHandler(&stubEnhance{})
	register := func(r *gin.Engine) { r.POST("/api/classify", h.Classify) }

	body := decode(t, serve(t, http.MethodPost, "/api/classify", `{"prompt":"python fibonacci"}`, register, ""))
	if body["complexity"] != "simple" || body["rule"] != "short_but_clear" || body["task_type"] != "code_generation" {
		t.Fatalf("unexpected body %v", body)
	}
	rec := serve(t, http.MethodPost, "/api/classify", `{"prompt":""}`, register, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreditsHandler(t *testing.T) {
	reset := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h := NewCreditsHandler(stubCredits{user: &types.User{ID: "u1", CreditsRemaining: 6, LastCreditReset: reset}})
	register := func(r *gin.Engine) { r.GET("/api/credits/:userId", h.GetCredits) }

	body := decode(t, serve(t, http.MethodGet, "/api/credits/u1", "", register, "u1"))
	if body["credits_remaining"] != float64(6) || body["last_credit_reset"] != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected body %v", body)
	}

	rec := serve(t, http.MethodGet, "/api/credits/u1", "", register, "someone-else")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}

	h = NewCreditsHandler(stubCredits{err: apierr.NotFound(apierr.CodeUserNotFound, errors.New("missing"))})
	rec = serve(t, http.MethodGet, "/api/credits/ghost", "", func(r *gin.Engine) { r.GET("/api/credits/:userId", h.GetCredits) }, "")
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != apierr.CodeUserNotFound {
		t.Fatalf("unexpected %d %s", rec.Code, rec.Body.String())
	}
}

func TestGuideHandler(t *testing.T) {
	stub := &stubGuides{docs: map[string]*guide.Document{
		enhance.PlatformGPT: {Principles: []guide.Principle{{Title: "Be specific"}}},
	}}
	h := NewGuideHandler(stub)
	register := func(r *gin.Engine) {
		r.GET("/api/guides", h.ListGuides)
		r.GET("/api/guides/:platform", h.GetGuide)
		r.PUT("/api/guides/:platform", h.PutGuide)
		r.DELETE("/api/guides/:platform", h.DeleteGuide)
	}

	body := decode(t, serve(t, http.MethodGet, "/api/guides/chatgpt", "", register, ""))
	if body["platform"] != enhance.PlatformGPT {
		t.Fatalf("unexpected body %v", body)
	}
	if rec := serve(t, http.MethodGet, "/api/guides/Gemini%202.5", "", register, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}

	rec := serve(t, http.MethodPut, "/api/guides/claude", `{"principles":[{"title":"Use XML tags","content":"Wrap inputs.","priority":1}]}`, register, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("put status %d: %s", rec.Code, rec.Body.String())
	}
	if stub.put == nil || len(stub.put.Principles) != 1 || stub.put.Principles[0].SortPriority() != 1 {
		t.Fatalf("document not forwarded: %+v", stub.put)
	}
	if rec := serve(t, http.MethodPut, "/api/guides/claude", `[1,2]`, register, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body status = %d", rec.Code)
	}

	body = decode(t, serve(t, http.MethodGet, "/api/guides", "", register, ""))
	if list, ok := body["guides"].([]any); !ok || len(list) != 1 {
		t.Fatalf("unexpected list %v", body)
	}
	if rec := serve(t, http.MethodDelete, "/api/guides/claude", "", register, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(nil)
	rec := serve(t, http.MethodGet, "/healthcheck", "", func(r *gin.Engine) { r.GET("/healthcheck", h.HealthCheck) }, "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("liveness: %d %q", rec.Code, rec.Body.String())
	}

	h = NewHealthHandler(map[string]Pinger{
		"db":    func(ctx context.Context) error { return nil },
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	rec = serve(t, http.MethodGet, "/healthcheck", "", func(r *gin.Engine) { r.GET("/healthcheck", h.HealthCheck) }, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestEnhanceHandlerSubjectIgnoresPadding(t *testing.T) {
	stub := &stubEnhance{res: &services.EnhanceResult{EnhancedPrompt: "better"}}
	h := NewEnhanceHandler(stub)
	register := func(r *gin.Engine) { r.POST("/api/enhance", h.Enhance) }

	rec := serve(t, http.MethodPost, "/api/enhance", `{"platform":"claude","prompt":"fix it","userId":" u1 "}`, register, "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if stub.calls != 1 {
		t.Fatalf("calls = %d", stub.calls)
	}

	rec = serve(t, http.MethodPost, "/api/enhance", `{"platform":"claude","prompt":"fix it","userId":" u2"}`, register, "u1")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("padded mismatch status = %d", rec.Code)
	}
}

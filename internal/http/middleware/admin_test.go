package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am, err := NewAuthMiddleware(logger.Nop(), AuthConfig{Secret: testSecret})
	if err != nil {
		t.Fatalf("NewAuthMiddleware: %v", err)
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))
	bearer := func(claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return "Bearer " + s
	}
	user := bearer(jwt.RegisteredClaims{Subject: "u1", ExpiresAt: exp})
	adminRole := bearer(jwt.MapClaims{"sub": "ops", "exp": exp.Unix(), "role": "admin"})
	adminRoles := bearer(jwt.MapClaims{"sub": "ops", "exp": exp.Unix(), "roles": []string{"reader", "admin"}})

	cases := []struct {
		name   string
		cfg    AdminConfig
		bearer string
		token  string
		want   int
	}{
		{name: "nothing configured", cfg: AdminConfig{}, bearer: user, want: http.StatusForbidden},
		{name: "plain user token", cfg: AdminConfig{Role: "admin"}, bearer: user, want: http.StatusForbidden},
		{name: "role claim", cfg: AdminConfig{Role: "admin"}, bearer: adminRole, want: http.StatusNoContent},
		{name: "roles list", cfg: AdminConfig{Role: "admin"}, bearer: adminRoles, want: http.StatusNoContent},
		{name: "role claim but role gate off", cfg: AdminConfig{Token: "t0k"}, bearer: adminRole, want: http.StatusForbidden},
		{name: "admin token header", cfg: AdminConfig{Token: "t0k"}, bearer: user, token: "t0k", want: http.StatusNoContent},
		{name: "wrong admin token", cfg: AdminConfig{Token: "t0k"}, bearer: user, token: "t0", want: http.StatusForbidden},
		{name: "empty token never matches", cfg: AdminConfig{}, bearer: user, token: "", want: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(am.RequireAuth())
			r.PUT("/api/guides/:platform", RequireAdmin(nil, tc.cfg), func(c *gin.Context) {
				c.Status(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodPut, "/api/guides/gpt", nil)
			req.Header.Set("Authorization", tc.bearer)
			if tc.token != "" {
				req.Header.Set(HeaderAdminToken, tc.token)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/promptlift-backend/internal/http/response"
	"github.com/yungbote/promptlift-backend/internal/platform/apierr"
	"github.com/yungbote/promptlift-backend/internal/platform/ctxutil"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

// AuthMiddleware verifies HS256 bearer tokens issued by the identity service.
// It never issues tokens.
type AuthMiddleware struct {
	log      *logger.Logger
	secret   []byte
	issuer   string
	audience string
}

type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

func NewAuthMiddleware(log *logger.Logger, cfg AuthConfig) (*AuthMiddleware, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("auth secret required")
	}
	return &AuthMiddleware{
		log:      log.With("Middleware", "AuthMiddleware"),
		secret:   []byte(cfg.Secret),
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: strings.TrimSpace(cfg.Audience),
	}, nil
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			c.Abort()
			response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("missing or invalid token"))
			return
		}
		ad, err := am.verify(tokenString)
		if err != nil {
			am.log.Debug("bearer token rejected", "error", err)
			c.Abort()
			response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("invalid token"))
			return
		}
		ctx := ctxutil.WithAuthData(c.Request.Context(), ad)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// tokenClaims accepts a single "role" claim or a "roles" list.
type tokenClaims struct {
	jwt.RegisteredClaims
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

func (tc tokenClaims) roles() []string {
	out := make([]string, 0, len(tc.Roles)+1)
	if r := strings.TrimSpace(tc.Role); r != "" {
		out = append(out, r)
	}
	for _, r := range tc.Roles {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func (am *AuthMiddleware) verify(tokenString string) (*ctxutil.AuthData, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if am.issuer != "" {
		opts = append(opts, jwt.WithIssuer(am.issuer))
	}
	if am.audience != "" {
		opts = append(opts, jwt.WithAudience(am.audience))
	}
	var claims tokenClaims
	if _, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return am.secret, nil
	}, opts...); err != nil {
		return nil, err
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return nil, errors.New("token has no subject")
	}
	return &ctxutil.AuthData{Subject: sub, Roles: claims.roles()}, nil
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

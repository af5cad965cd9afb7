package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	httpserver "github.com/yungbote/promptlift-backend/internal/http"
	httpH "github.com/yungbote/promptlift-backend/internal/http/handlers"
	httpMW "github.com/yungbote/promptlift-backend/internal/http/middleware"
	"github.com/yungbote/promptlift-backend/internal/observability"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

type Middleware struct {
	Auth  *httpMW.AuthMiddleware
	Admin gin.HandlerFunc
}

type Handlers struct {
	Health  *httpH.HealthHandler
	Enhance *httpH.EnhanceHandler
	Credits *httpH.CreditsHandler
	Guides  *httpH.GuideHandler
}

func wireMiddleware(log *logger.Logger, cfg Config) (Middleware, error) {
	log.Info("Wiring middleware...")
	admin := httpMW.RequireAdmin(log, httpMW.AdminConfig{Token: cfg.GuideAdminToken, Role: cfg.GuideAdminRole})
	if cfg.GuideAdminToken == "" && cfg.AuthJWTSecret == "" {
		log.Warn("Neither GUIDE_ADMIN_TOKEN nor AUTH_JWT_SECRET set; guide writes over HTTP are disabled")
	}
	if cfg.AuthJWTSecret == "" {
		log.Warn("AUTH_JWT_SECRET not set; /api routes are unauthenticated")
		return Middleware{Admin: admin}, nil
	}
	am, err := httpMW.NewAuthMiddleware(log, httpMW.AuthConfig{
		Secret:   cfg.AuthJWTSecret,
		Issuer:   cfg.AuthJWTIssuer,
		Audience: cfg.AuthJWTAudience,
	})
	if err != nil {
		return Middleware{}, fmt.Errorf("init auth middleware: %w", err)
	}
	return Middleware{Auth: am, Admin: admin}, nil
}

func wireHandlers(log *logger.Logger, db *gorm.DB, clients Clients, svcs Services) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.Pinger{
		"db": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return clients.Redis.Ping(ctx).Err() }
	}
	return Handlers{
		Health:  httpH.NewHealthHandler(checks),
		Enhance: httpH.NewEnhanceHandler(svcs.Enhance),
		Credits: httpH.NewCreditsHandler(svcs.Credits),
		Guides:  httpH.NewGuideHandler(svcs.Guides),
	}
}

func wireServer(log *logger.Logger, cfg Config, tracing bool, metrics *observability.Metrics, mw Middleware, h Handlers) *httpserver.Server {
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:            log,
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		Tracing:        tracing,
		AuthMiddleware: mw.Auth,
		AdminGate:      mw.Admin,
		Metrics:        metrics,
		EnhanceHandler: h.Enhance,
		CreditsHandler: h.Credits,
		GuideHandler:   h.Guides,
		HealthHandler:  h.Health,
	})
}

package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/promptlift-backend/internal/http/handlers"
	httpMW "github.com/yungbote/promptlift-backend/internal/http/middleware"
	"github.com/yungbote/promptlift-backend/internal/observability"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Tracing     bool

	AuthMiddleware *httpMW.AuthMiddleware
	// AdminGate guards guide writes; nil refuses them.
	AdminGate gin.HandlerFunc
	Metrics   *observability.Metrics

	EnhanceHandler *httpH.EnhanceHandler
	CreditsHandler *httpH.CreditsHandler
	GuideHandler   *httpH.GuideHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		name := cfg.ServiceName
		if name == "" {
			name = "promptlift"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.EnhanceHandler != nil {
			api.POST("/enhance", cfg.EnhanceHandler.Enhance)
			api.POST("/classify", cfg.EnhanceHandler.Classify)
		}

		if cfg.CreditsHandler != nil {
			api.GET("/credits/:userId", cfg.CreditsHandler.GetCredits)
		}

		if cfg.GuideHandler != nil {
			api.GET("/guides", cfg.GuideHandler.ListGuides)
			api.GET("/guides/:platform", cfg.GuideHandler.GetGuide)

			admin := cfg.AdminGate
			if admin == nil {
				admin = httpMW.RequireAdmin(cfg.Log, httpMW.AdminConfig{})
			}
			api.PUT("/guides/:platform", admin, cfg.GuideHandler.PutGuide)
			api.DELETE("/guides/:platform", admin, cfg.GuideHandler.DeleteGuide)
		}
	}

	return r
}

package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/collection-listing/internal/http/handlers"
	httpMW "github.com/yungbote/collection-listing/internal/http/middleware"
	"github.com/yungbote/collection-listing/internal/observability"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler      *httpH.HealthHandler
	AggregationHandler *httpH.AggregationHandler
	ListingHandler     *httpH.ListingHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "collection-listing"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.OptionalAuth())
	}
	{
		if cfg.AggregationHandler != nil {
			api.GET("/aggregation", cfg.AggregationHandler.GetAggregation)
			api.GET("/aggregation/paths", cfg.AggregationHandler.GetAggregationPaths)
		}
		if cfg.ListingHandler != nil {
			api.GET("/listings", cfg.ListingHandler.List)
		}
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		if cfg.AggregationHandler != nil {
			protected.DELETE("/aggregation", cfg.AggregationHandler.InvalidateAggregation)
		}
	}

	return r
}

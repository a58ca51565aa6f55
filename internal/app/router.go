package app

import (
	apphttp "github.com/yungbote/collection-listing/internal/http"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

func wireServer(cfg Config, log *logger.Logger, clients Clients, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:                log,
		ServiceName:        cfg.ServiceName,
		CORSOrigins:        cfg.CORSOrigins,
		Metrics:            clients.Metrics,
		AuthMiddleware:     middleware.Auth,
		HealthHandler:      handlers.Health,
		AggregationHandler: handlers.Aggregation,
		ListingHandler:     handlers.Listing,
	})
}

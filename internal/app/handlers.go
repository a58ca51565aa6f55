package app

import (
	"context"

	httpH "github.com/yungbote/collection-listing/internal/http/handlers"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Aggregation *httpH.AggregationHandler
	Listing     *httpH.ListingHandler
}

func wireHandlers(log *logger.Logger, clients Clients, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(healthChecks(clients)),
		Aggregation: httpH.NewAggregationHandler(log, services.Aggregation),
		Listing:     httpH.NewListingHandler(log, services.Listing),
	}
}

func healthChecks(clients Clients) map[string]httpH.HealthCheckFunc {
	checks := map[string]httpH.HealthCheckFunc{}
	if db := clients.Gorm(); db != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if clients.Neo4j.Available() {
		checks["neo4j"] = clients.Neo4j.Ping
	}
	return checks
}

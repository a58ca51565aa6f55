package app

import (
	"fmt"

	"github.com/yungbote/collection-listing/internal/modules/aggregation"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
	"github.com/yungbote/collection-listing/internal/platform/logger"
	"github.com/yungbote/collection-listing/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Lookup      *services.ResourceLookup
	Resolver    *aggregation.Resolver
	Aggregation services.AggregationService
	Listing     services.ListingService
}

func wireServices(cfg Config, log *logger.Logger, clients Clients, repos Repos) (Services, error) {
	log.Info("Wiring services...")

	local, err := resourceurl.Parse(cfg.LocalHostURL)
	if err != nil {
		return Services{}, fmt.Errorf("LOCAL_HOST_URL: %w", err)
	}

	auth := services.NewAuthService(log, cfg.JWTSecretKey, cfg.JWTIssuer, cfg.AccessTokenTTL)

	lookup, err := services.NewResourceLookup(services.ResourceLookupDeps{
		Repo:             repos.Resource,
		Auth:             auth,
		Log:              log,
		LocalHost:        local.HostRoot(),
		MultiHostEnabled: cfg.MultiHostSearch,
		MaxConcurrency:   cfg.LookupMaxConcurrency,
	})
	if err != nil {
		return Services{}, err
	}

	resolver := aggregation.NewResolver(aggregation.ResolverDeps{Lookup: lookup, Log: log}, cfg.Aggregation)

	agg, err := services.NewAggregationService(services.AggregationServiceDeps{
		Log:      log,
		Lookup:   lookup,
		Resolver: resolver,
		Auth:     auth,
		Cache:    clients.Cache,
		Graph:    clients.Neo4j,
		Metrics:  clients.Metrics,
	})
	if err != nil {
		return Services{}, err
	}

	listing, err := services.NewListingService(services.ListingServiceDeps{
		Log:         log,
		Repo:        repos.Resource,
		Aggregation: agg,
		Auth:        auth,
	})
	if err != nil {
		return Services{}, err
	}

	return Services{
		Auth:        auth,
		Lookup:      lookup,
		Resolver:    resolver,
		Aggregation: agg,
		Listing:     listing,
	}, nil
}

package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	appdb "github.com/yungbote/collection-listing/internal/data/db"
	"github.com/yungbote/collection-listing/internal/observability"
	"github.com/yungbote/collection-listing/internal/platform/logger"
	"github.com/yungbote/collection-listing/internal/platform/neo4jdb"
	"github.com/yungbote/collection-listing/internal/platform/redis"
)

type Clients struct {
	DB      *appdb.Service
	Cache   redis.AggregationCache
	Neo4j   *neo4jdb.Client
	Metrics *observability.Metrics
}

func wireClients(cfg Config, log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	dbs, err := appdb.NewService(cfg.DB, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	if err := appdb.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		return Clients{}, fmt.Errorf("database automigrate: %w", err)
	}

	out := Clients{DB: dbs}

	// Redis aggregation cache (optional)
	cache, err := redis.NewAggregationCache(cfg.Redis, log)
	if err != nil {
		out.Close(context.Background())
		return Clients{}, fmt.Errorf("init aggregation cache: %w", err)
	}
	if cache == nil {
		log.Info("REDIS_ADDR not set, aggregation cache disabled")
	}
	out.Cache = cache

	// Neo4j graph mirror (optional)
	graph, err := neo4jdb.New(cfg.Neo4j, log)
	if err != nil {
		out.Close(context.Background())
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}
	if graph == nil {
		log.Info("NEO4J_URI not set, aggregation graph mirror disabled")
	}
	out.Neo4j = graph

	if cfg.MetricsEnabled {
		out.Metrics = observability.NewMetrics()
	}
	return out, nil
}

func (c Clients) Gorm() *gorm.DB {
	if c.DB == nil {
		return nil
	}
	return c.DB.DB()
}

func (c Clients) Close(ctx context.Context) {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}

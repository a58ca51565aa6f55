package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	appdb "github.com/yungbote/collection-listing/internal/data/db"
	"github.com/yungbote/collection-listing/internal/modules/aggregation"
	"github.com/yungbote/collection-listing/internal/observability"
	"github.com/yungbote/collection-listing/internal/platform/envutil"
	"github.com/yungbote/collection-listing/internal/platform/logger"
	"github.com/yungbote/collection-listing/internal/platform/neo4jdb"
	"github.com/yungbote/collection-listing/internal/platform/redis"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	LogMode     string `yaml:"log_mode"`
	Port        string `yaml:"port"`
	ServiceName string `yaml:"service_name"`

	DB    appdb.Config             `yaml:"db"`
	Redis redis.Config             `yaml:"redis"`
	Neo4j neo4jdb.Config           `yaml:"neo4j"`
	Otel  observability.OtelConfig `yaml:"otel"`

	MetricsEnabled bool `yaml:"metrics_enabled"`

	JWTSecretKey   string        `yaml:"jwt_secret_key"`
	JWTIssuer      string        `yaml:"jwt_issuer"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`

	CORSOrigins []string `yaml:"cors_origins"`

	// LocalHostURL is the root URL of the host this service indexes.
	LocalHostURL         string `yaml:"local_host_url"`
	MultiHostSearch      bool   `yaml:"multi_host_search"`
	LookupMaxConcurrency int    `yaml:"lookup_max_concurrency"`

	Aggregation aggregation.Config `yaml:"aggregation"`
}

func defaultConfig() Config {
	return Config{
		LogMode:     "development",
		Port:        "8080",
		ServiceName: "collection-listing",
		DB: appdb.Config{
			Driver:       appdb.DriverPostgres,
			PostgresHost: "localhost",
			PostgresPort: "5432",
			PostgresUser: "postgres",
			PostgresName: "collection_listing",
		},
		Otel: observability.OtelConfig{
			ServiceName: "collection-listing",
			SampleRatio: 0.1,
		},
		MetricsEnabled:       true,
		JWTSecretKey:         defaultJWTSecret,
		AccessTokenTTL:       time.Hour,
		LocalHostURL:         "http://localhost/",
		LookupMaxConcurrency: 4,
		Aggregation: aggregation.Config{
			Limit:             aggregation.DefaultLimit,
			MaxRecursiveDepth: aggregation.DefaultMaxRecursiveDepth,
		},
	}
}

// LoadConfig builds the config from defaults, then the YAML file named by
// AGGREGATION_CONFIG_FILE (if any), then environment variables.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()

	if path := envutil.String("AGGREGATION_CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
		log.Info("Loaded config file", "path", path)
	}
	applyEnv(&cfg)

	if cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY not set, using insecure default")
	}
	if strings.TrimSpace(cfg.LocalHostURL) == "" {
		return Config{}, fmt.Errorf("LOCAL_HOST_URL required")
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.ServiceName = envutil.String("SERVICE_NAME", cfg.ServiceName)

	cfg.DB.Driver = envutil.String("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.PostgresDSN = envutil.String("POSTGRES_DSN", cfg.DB.PostgresDSN)
	cfg.DB.PostgresHost = envutil.String("POSTGRES_HOST", cfg.DB.PostgresHost)
	cfg.DB.PostgresPort = envutil.String("POSTGRES_PORT", cfg.DB.PostgresPort)
	cfg.DB.PostgresUser = envutil.String("POSTGRES_USER", cfg.DB.PostgresUser)
	cfg.DB.PostgresPassword = envutil.String("POSTGRES_PASSWORD", cfg.DB.PostgresPassword)
	cfg.DB.PostgresName = envutil.String("POSTGRES_NAME", cfg.DB.PostgresName)
	cfg.DB.SQLitePath = envutil.String("SQLITE_PATH", cfg.DB.SQLitePath)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.TTL = envutil.Duration("AGGREGATION_CACHE_TTL", cfg.Redis.TTL)

	cfg.Neo4j.URI = envutil.String("NEO4J_URI", cfg.Neo4j.URI)
	cfg.Neo4j.User = envutil.String("NEO4J_USER", cfg.Neo4j.User)
	cfg.Neo4j.Password = envutil.String("NEO4J_PASSWORD", cfg.Neo4j.Password)
	cfg.Neo4j.Database = envutil.String("NEO4J_DATABASE", cfg.Neo4j.Database)
	cfg.Neo4j.Timeout = envutil.Duration("NEO4J_TIMEOUT", cfg.Neo4j.Timeout)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
	cfg.Otel.Environment = envutil.String("APP_ENV", cfg.Otel.Environment)
	cfg.Otel.Version = envutil.String("APP_VERSION", cfg.Otel.Version)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)
	cfg.Otel.Exporter = envutil.String("OTEL_TRACES_EXPORTER", cfg.Otel.Exporter)
	if raw := envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""); raw != "" {
		cfg.Otel.Headers = observability.ParseHeaders(raw)
	}
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Otel.SampleRatio)

	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)

	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.JWTIssuer = envutil.String("JWT_ISSUER", cfg.JWTIssuer)
	cfg.AccessTokenTTL = envutil.Duration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)

	if origins := envutil.List("CORS_ORIGINS"); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}

	cfg.LocalHostURL = envutil.String("LOCAL_HOST_URL", cfg.LocalHostURL)
	cfg.MultiHostSearch = envutil.Bool("MULTI_HOST_SEARCH_ENABLED", cfg.MultiHostSearch)
	cfg.LookupMaxConcurrency = envutil.Int("LOOKUP_MAX_CONCURRENCY", cfg.LookupMaxConcurrency)

	cfg.Aggregation.Limit = envutil.Int("AGGREGATION_LIMIT", cfg.Aggregation.Limit)
	cfg.Aggregation.MaxRecursiveDepth = envutil.Int("AGGREGATION_MAX_RECURSIVE_DEPTH", cfg.Aggregation.MaxRecursiveDepth)
}

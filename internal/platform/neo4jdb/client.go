package neo4jdb

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/collection-listing/internal/platform/logger"
)

const (
	defaultUser        = "neo4j"
	defaultTimeout     = 10 * time.Second
	defaultMaxPoolSize = 50
)

type Config struct {
	URI         string        `yaml:"uri"`
	User        string        `yaml:"user"`
	Password    string        `yaml:"password"`
	Database    string        `yaml:"database"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxPoolSize int           `yaml:"max_pool_size"`
}

// Enabled reports whether a URI is configured.
func (c Config) Enabled() bool { return strings.TrimSpace(c.URI) != "" }

func (c Config) normalized() Config {
	c.URI = strings.TrimSpace(c.URI)
	c.User = strings.TrimSpace(c.User)
	c.Database = strings.TrimSpace(c.Database)
	if c.User == "" {
		c.User = defaultUser
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = defaultMaxPoolSize
	}
	return c
}

// Client wraps a driver bound to one database. A nil *Client is valid and
// reports itself unavailable.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	log      *logger.Logger

	schemaOnce sync.Once
}

// New connects and verifies connectivity. It returns (nil, nil) when no URI
// is configured.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("neo4jdb: logger required")
	}
	if !cfg.Enabled() {
		return nil, nil
	}
	cfg = cfg.normalized()

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""), func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = cfg.MaxPoolSize
		c.SocketConnectTimeout = cfg.Timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jdb: init driver: %w", err)
	}

	c := &Client{driver: driver, database: cfg.Database, log: log.With("client", "Neo4jDB")}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4jdb: verify connectivity: %w", err)
	}
	c.log.Info("Neo4j connected", "uri", cfg.URI, "database", cfg.Database)
	return c, nil
}

func (c *Client) Available() bool { return c != nil && c.driver != nil }

func (c *Client) Ping(ctx context.Context) error {
	if !c.Available() {
		return fmt.Errorf("neo4jdb: client not configured")
	}
	return c.driver.VerifyConnectivity(ctx)
}

// WriteSession opens a write session on the configured database. Callers
// close it.
func (c *Client) WriteSession(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.database,
	})
}

// EnsureSchema runs the given statements once per client. Failures are
// logged and not retried.
func (c *Client) EnsureSchema(ctx context.Context, statements ...string) {
	if !c.Available() {
		return
	}
	c.schemaOnce.Do(func() {
		session := c.WriteSession(ctx)
		defer session.Close(ctx)
		for _, q := range statements {
			res, err := session.Run(ctx, q, nil)
			if err == nil {
				_, err = res.Consume(ctx)
			}
			if err != nil {
				c.log.Warn("Neo4j schema statement failed", "statement", q, "error", err)
			}
		}
	})
}

func (c *Client) Close(ctx context.Context) error {
	if !c.Available() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := c.driver.Close(ctx)
	c.driver = nil
	return err
}

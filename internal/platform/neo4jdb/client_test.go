package neo4jdb

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/collection-listing/internal/platform/logger"
)

func TestNewWithoutURIReturnsNilClient(t *testing.T) {
	c, err := New(Config{URI: "  "}, logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c != nil {
		t.Fatalf("New: want=nil client got=%v", c)
	}
	if c.Available() {
		t.Fatalf("Available: want=false")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("Ping: want error on nil client")
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	c.EnsureSchema(context.Background(), "RETURN 1")
}

func TestNewRequiresLogger(t *testing.T) {
	if _, err := New(Config{URI: "neo4j://localhost:7687"}, nil); err == nil {
		t.Fatalf("New: want error without logger")
	}
}

func TestConfigNormalized(t *testing.T) {
	got := Config{URI: " neo4j://db:7687 ", Database: " graph "}.normalized()
	if got.URI != "neo4j://db:7687" || got.Database != "graph" {
		t.Fatalf("normalized: got=%+v", got)
	}
	if got.User != defaultUser || got.Timeout != defaultTimeout || got.MaxPoolSize != defaultMaxPoolSize {
		t.Fatalf("normalized defaults: got=%+v", got)
	}

	custom := Config{User: "reader", Timeout: time.Second, MaxPoolSize: 3}.normalized()
	if custom.User != "reader" || custom.Timeout != time.Second || custom.MaxPoolSize != 3 {
		t.Fatalf("normalized custom: got=%+v", custom)
	}
}

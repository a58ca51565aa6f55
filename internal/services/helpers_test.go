package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/collection-listing/internal/data/repos/testutil"
	aggdomain "github.com/yungbote/collection-listing/internal/domain/aggregation"
	"github.com/yungbote/collection-listing/internal/domain/resources"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

const testSecret = "test-secret"

// indexHost seeds resources on one host outside any transaction so the
// concurrent lookups see them. Rows are removed when the test ends.
type indexHost struct {
	t    *testing.T
	db   *gorm.DB
	root resourceurl.URL
}

func newIndexHost(t *testing.T, db *gorm.DB, raw string) *indexHost {
	t.Helper()
	root := resourceurl.MustParse(raw).HostRoot()
	t.Cleanup(func() {
		_ = db.Unscoped().Where("host = ?", root.String()).Delete(&resources.Resource{}).Error
	})
	return &indexHost{t: t, db: db, root: root}
}

func (h *indexHost) add(path string, typ string, props map[string]any) *resources.Resource {
	h.t.Helper()
	return testutil.SeedResource(h.t, context.Background(), h.db, h.root.WithPath(resourceurl.MustPath(path)).String(), typ, props)
}

func (h *indexHost) collection(path string, props map[string]any) *resources.Resource {
	h.t.Helper()
	return h.add(path, resources.ResourceTypeCollection, props)
}

func (h *indexHost) restricted(path string, typ string) *resources.Resource {
	h.t.Helper()
	return testutil.SeedRestricted(h.t, context.Background(), h.db, h.root.WithPath(resourceurl.MustPath(path)).String(), typ)
}

func aggregating(refs ...string) map[string]any {
	return map[string]any{
		resources.PropDisplayAggregation: true,
		resources.PropAggregation:        refs,
	}
}

func testAuth() AuthService {
	return NewAuthService(logger.Nop(), testSecret, "", time.Hour)
}

func testToken(t *testing.T) string {
	t.Helper()
	token, err := testAuth().IssueToken("editor")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]aggdomain.Result
	gets    int
	sets    int
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]aggdomain.Result{}}
}

func (c *fakeCache) Key(collectionURL string, visibility string) string {
	return visibility + "|" + collectionURL
}

func (c *fakeCache) Get(ctx context.Context, key string) (aggdomain.Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	res, ok := c.entries[key]
	return res, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, res aggdomain.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = res
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *fakeCache) Close() error { return nil }

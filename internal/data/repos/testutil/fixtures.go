package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/collection-listing/internal/domain/resources"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
)

// SeedResource indexes a resource at rawURL.
func SeedResource(tb testing.TB, ctx context.Context, tx *gorm.DB, rawURL string, resourceType string, props map[string]any) *resources.Resource {
	tb.Helper()
	u, err := resourceurl.Parse(rawURL)
	if err != nil {
		tb.Fatalf("seed resource %q: %v", rawURL, err)
	}
	r := resources.New(u, u.Path, resourceType, props)
	r.Title = u.Path.Name()
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed resource %q: %v", rawURL, err)
	}
	return r
}

func SeedRestricted(tb testing.TB, ctx context.Context, tx *gorm.DB, rawURL string, resourceType string) *resources.Resource {
	tb.Helper()
	r := SeedResource(tb, ctx, tx, rawURL, resourceType, nil)
	if err := tx.WithContext(ctx).Model(r).Update("read_restricted", true).Error; err != nil {
		tb.Fatalf("restrict resource %q: %v", rawURL, err)
	}
	r.ReadRestricted = true
	return r
}

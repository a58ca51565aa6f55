package aggregation

import (
	"context"

	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
)

// Node is a property-bearing resource the resolver can walk.
type Node interface {
	CanonicalURL() resourceurl.URL
	Strings(name string) []string
	Bool(name string) bool
}

// Lookup fetches aggregation targets. Implementations must be safe for
// concurrent use when the Resolver is shared.
type Lookup interface {
	LocalHost() resourceurl.URL
	MultiHostEnabled() bool
	// LookupLocal returns the existing resources among paths on the local host.
	LookupLocal(ctx context.Context, token string, paths []resourceurl.Path) ([]Node, error)
	// LookupMultiHost returns the existing resources among urls on any indexed host.
	LookupMultiHost(ctx context.Context, token string, urls []resourceurl.URL) ([]Node, error)
	// Retrieve returns the local resource at path, or an error when it is
	// missing or not readable with token.
	Retrieve(ctx context.Context, token string, path resourceurl.Path) (Node, error)
}

// Request is one top-level resolution. Token is forwarded to every lookup;
// the resolver never reads the caller's identity from anywhere else.
type Request struct {
	Collection Node
	Token      string
}

package aggregation

const (
	DefaultLimit             = 5
	DefaultMaxRecursiveDepth = 2
)

// Config holds the resolver-wide bounds. Zero fields mean "use the default".
type Config struct {
	// Limit caps how many aggregation values are followed per node.
	Limit int `yaml:"limit" json:"limit"`
	// MaxRecursiveDepth caps recursion below the starting collection.
	MaxRecursiveDepth int `yaml:"max_recursive_depth" json:"max_recursive_depth"`
}

// SetLimit changes the fan-out limit. Values below 1 are rejected with a
// warning and the current value is kept.
func (r *Resolver) SetLimit(limit int) bool {
	if limit < 1 {
		r.log.Warn("Rejecting aggregation limit, keeping current value", "requested", limit, "current", r.Config().Limit)
		return false
	}
	r.mu.Lock()
	r.limit = limit
	r.mu.Unlock()
	return true
}

// SetMaxRecursiveDepth changes the recursion bound. Values below 1 are
// rejected with a warning and the current value is kept.
func (r *Resolver) SetMaxRecursiveDepth(depth int) bool {
	if depth < 1 {
		r.log.Warn("Rejecting max recursive depth, keeping current value", "requested", depth, "current", r.Config().MaxRecursiveDepth)
		return false
	}
	r.mu.Lock()
	r.maxDepth = depth
	r.mu.Unlock()
	return true
}

func (r *Resolver) Config() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Config{Limit: r.limit, MaxRecursiveDepth: r.maxDepth}
}

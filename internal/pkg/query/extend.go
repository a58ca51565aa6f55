package query

import (
	"fmt"

	pkgerrors "github.com/yungbote/collection-listing/internal/pkg/errors"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
)

// UnsupportedQueryError is returned when a query's top-level shape cannot
// be extended safely.
type UnsupportedQueryError struct {
	Query Query
}

func (e *UnsupportedQueryError) Error() string {
	if e == nil || e.Query == nil {
		return "unsupported query: <nil>"
	}
	return fmt.Sprintf("unsupported query for aggregation: %T %s", e.Query, e.Query.String())
}

func (e *UnsupportedQueryError) Unwrap() error { return pkgerrors.ErrInvalidArgument }

// ExtendWithAggregation ORs every equality URIPrefix condition of q with a
// prefix condition per aggregation path. Inequality prefixes and other
// leaves are kept as they are; AND/OR nesting is preserved. The top-level
// query must be a URIPrefix, And or Or.
func ExtendWithAggregation(q Query, paths []resourceurl.Path) (Query, error) {
	switch t := q.(type) {
	case URIPrefix:
		if len(paths) == 0 {
			return t, nil
		}
		return extendLeaf(t, paths), nil
	case And:
		if len(paths) == 0 {
			return t, nil
		}
		return extendAnd(t, paths), nil
	case Or:
		if len(paths) == 0 {
			return t, nil
		}
		return extendOr(t, paths), nil
	default:
		return nil, &UnsupportedQueryError{Query: q}
	}
}

func extendChild(q Query, paths []resourceurl.Path) Query {
	switch t := q.(type) {
	case URIPrefix:
		return extendLeaf(t, paths)
	case And:
		return extendAnd(t, paths)
	case Or:
		return extendOr(t, paths)
	default:
		return q
	}
}

func extendable(q Query) (URIPrefix, bool) {
	leaf, ok := q.(URIPrefix)
	if !ok || leaf.Op != OpEq {
		return URIPrefix{}, false
	}
	return leaf, true
}

func extendLeaf(leaf URIPrefix, paths []resourceurl.Path) Query {
	if _, ok := extendable(leaf); !ok {
		return leaf
	}
	out := Or{Queries: []Query{leaf}}
	return appendAggregationPrefixes(out, leaf, paths)
}

func extendAnd(q And, paths []resourceurl.Path) Query {
	out := And{Queries: make([]Query, 0, len(q.Queries))}
	for _, c := range q.Queries {
		out.Queries = append(out.Queries, extendChild(c, paths))
	}
	return out
}

// extendOr adds the aggregation prefixes to the same OR group when it holds
// an extendable leaf, instead of nesting another OR below it.
func extendOr(or Or, paths []resourceurl.Path) Query {
	out := Or{Queries: make([]Query, 0, len(or.Queries)+len(paths))}
	leaves := []URIPrefix{}
	for _, c := range or.Queries {
		if leaf, ok := extendable(c); ok {
			leaves = append(leaves, leaf)
			out.Queries = append(out.Queries, c)
			continue
		}
		out.Queries = append(out.Queries, extendChild(c, paths))
	}
	for _, leaf := range leaves {
		out = appendAggregationPrefixes(out, leaf, paths)
	}
	return out
}

func appendAggregationPrefixes(or Or, leaf URIPrefix, paths []resourceurl.Path) Or {
	present := map[URIPrefix]struct{}{}
	for _, c := range or.Queries {
		if p, ok := c.(URIPrefix); ok {
			present[p] = struct{}{}
		}
	}
	for _, p := range paths {
		cond := URIPrefix{URI: p, Op: OpEq, IncludeSelf: leaf.IncludeSelf}
		if _, dup := present[cond]; dup {
			continue
		}
		present[cond] = struct{}{}
		or.Queries = append(or.Queries, cond)
	}
	return or
}

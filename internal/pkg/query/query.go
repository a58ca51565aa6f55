package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
)

type Op string

const (
	OpEq Op = "eq"
	OpNe Op = "ne"
)

// Query is a structural query over indexed resources.
type Query interface {
	fmt.Stringer
	isQuery()
}

// URIPrefix matches resources below URI, and URI itself when IncludeSelf is set.
type URIPrefix struct {
	URI         resourceurl.Path
	Op          Op
	IncludeSelf bool
}

// URIDepth matches resources whose path has exactly Depth segments.
type URIDepth struct {
	Depth int
	Op    Op
}

type TypeTerm struct {
	Type string
	Op   Op
}

type PropertyTerm struct {
	Name  string
	Value string
	Op    Op
}

type And struct {
	Queries []Query
}

type Or struct {
	Queries []Query
}

func (URIPrefix) isQuery()    {}
func (URIDepth) isQuery()     {}
func (TypeTerm) isQuery()     {}
func (PropertyTerm) isQuery() {}
func (And) isQuery()          {}
func (Or) isQuery()           {}

// Prefix is the common equality form of URIPrefix.
func Prefix(uri resourceurl.Path) URIPrefix {
	return URIPrefix{URI: uri, Op: OpEq}
}

func opSymbol(op Op, eq, ne string) string {
	if op == OpNe {
		return ne
	}
	return eq
}

func (q URIPrefix) String() string {
	s := "uri" + opSymbol(q.Op, "^=", "!^=") + strconv.Quote(q.URI.String())
	if q.IncludeSelf {
		s += "+self"
	}
	return s
}

func (q URIDepth) String() string {
	return "depth" + opSymbol(q.Op, "=", "!=") + strconv.Itoa(q.Depth)
}

func (q TypeTerm) String() string {
	return "type" + opSymbol(q.Op, "=", "!=") + strconv.Quote(q.Type)
}

func (q PropertyTerm) String() string {
	return q.Name + opSymbol(q.Op, "=", "!=") + strconv.Quote(q.Value)
}

func (q And) String() string { return join(q.Queries, " AND ") }

func (q Or) String() string { return join(q.Queries, " OR ") }

func join(qs []Query, sep string) string {
	parts := make([]string, 0, len(qs))
	for _, q := range qs {
		if q == nil {
			parts = append(parts, "<nil>")
			continue
		}
		parts = append(parts, q.String())
	}
	return "(" + strings.Join(parts, sep) + ")"
}

package resources

import (
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/yungbote/collection-listing/internal/pkg/errors"
	"github.com/yungbote/collection-listing/internal/pkg/query"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
)

const (
	opTranslate = "query_translate"

	// Number of "/" in uri. The root "/" is special-cased by the callers.
	depthSQL = "(LENGTH(uri) - LENGTH(REPLACE(uri, '/', '')))"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Condition translates q into a GORM where expression over the resource
// table.
func Condition(q query.Query) (clause.Expression, error) {
	switch t := q.(type) {
	case nil:
		return nil, opErr(opTranslate, OperationErrorValidation, "nil query", pkgerrors.ErrInvalidArgument)
	case query.URIPrefix:
		return prefixCondition(t)
	case query.URIDepth:
		return depthCondition(t)
	case query.TypeTerm:
		if strings.TrimSpace(t.Type) == "" {
			return nil, opErr(opTranslate, OperationErrorValidation, "empty resource type", pkgerrors.ErrInvalidArgument)
		}
		if t.Op == query.OpNe {
			return clause.Neq{Column: clause.Column{Name: "resource_type"}, Value: t.Type}, nil
		}
		return clause.Eq{Column: clause.Column{Name: "resource_type"}, Value: t.Type}, nil
	case query.PropertyTerm:
		if strings.TrimSpace(t.Name) == "" {
			return nil, opErr(opTranslate, OperationErrorValidation, "empty property name", pkgerrors.ErrInvalidArgument)
		}
		expr := datatypes.JSONQuery("properties").Equals(t.Value, t.Name)
		if t.Op == query.OpNe {
			return clause.Not(expr), nil
		}
		return expr, nil
	case query.And:
		if len(t.Queries) == 0 {
			return clause.Expr{SQL: "1 = 1"}, nil
		}
		exprs, err := conditions(t.Queries)
		if err != nil {
			return nil, err
		}
		return clause.And(exprs...), nil
	case query.Or:
		if len(t.Queries) == 0 {
			return clause.Expr{SQL: "1 = 0"}, nil
		}
		exprs, err := conditions(t.Queries)
		if err != nil {
			return nil, err
		}
		return clause.Or(exprs...), nil
	default:
		return nil, opErr(opTranslate, OperationErrorUnsupportedQuery, fmt.Sprintf("unsupported query %T", q), pkgerrors.ErrInvalidArgument)
	}
}

func conditions(qs []query.Query) ([]clause.Expression, error) {
	out := make([]clause.Expression, 0, len(qs))
	for _, sub := range qs {
		expr, err := Condition(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func prefixCondition(q query.URIPrefix) (clause.Expression, error) {
	p, err := resourceurl.ParsePath(string(q.URI))
	if err != nil {
		return nil, opErr(opTranslate, OperationErrorValidation, fmt.Sprintf("bad uri prefix %q", q.URI), pkgerrors.ErrInvalidArgument)
	}

	var expr clause.Expr
	switch {
	case p.IsRoot() && q.IncludeSelf:
		expr = clause.Expr{SQL: "uri LIKE ?", Vars: []any{"/%"}}
	case p.IsRoot():
		expr = clause.Expr{SQL: "uri <> ?", Vars: []any{"/"}}
	case q.IncludeSelf:
		expr = clause.Expr{
			SQL:  `(uri = ? OR uri LIKE ? ESCAPE '\')`,
			Vars: []any{p.String(), likeEscaper.Replace(p.String()) + "/%"},
		}
	default:
		expr = clause.Expr{
			SQL:  `uri LIKE ? ESCAPE '\'`,
			Vars: []any{likeEscaper.Replace(p.String()) + "/%"},
		}
	}
	if q.Op == query.OpNe {
		expr.SQL = "NOT (" + expr.SQL + ")"
	}
	return expr, nil
}

func depthCondition(q query.URIDepth) (clause.Expression, error) {
	if q.Depth < 0 {
		return nil, opErr(opTranslate, OperationErrorValidation, fmt.Sprintf("negative depth %d", q.Depth), pkgerrors.ErrInvalidArgument)
	}
	var expr clause.Expr
	if q.Depth == 0 {
		expr = clause.Expr{SQL: "uri = ?", Vars: []any{"/"}}
	} else {
		expr = clause.Expr{SQL: "(uri <> ? AND " + depthSQL + " = ?)", Vars: []any{"/", q.Depth}}
	}
	if q.Op == query.OpNe {
		expr.SQL = "NOT (" + expr.SQL + ")"
	}
	return expr, nil
}

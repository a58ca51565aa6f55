package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/collection-listing/internal/app"
	resourcerepos "github.com/yungbote/collection-listing/internal/data/repos/resources"
	"github.com/yungbote/collection-listing/internal/domain/resources"
	"github.com/yungbote/collection-listing/internal/pkg/query"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
	"github.com/yungbote/collection-listing/internal/platform/dbctx"
)

type pathList []string

func (l *pathList) String() string { return strings.Join(*l, ",") }
func (l *pathList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

// warm_aggregations re-resolves aggregating collections of the local host,
// refreshing the aggregation cache and graph mirror.
func main() {
	var paths pathList
	var dryRun bool
	var limit int
	flag.Var(&paths, "path", "collection path to warm (repeatable); default: every aggregating collection")
	flag.BoolVar(&dryRun, "dry-run", false, "print collections without resolving")
	flag.IntVar(&limit, "limit", 0, "limit number of collections processed")
	flag.Parse()

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	targets := []resourceurl.Path{}
	for _, raw := range paths {
		p, err := resourceurl.ParsePath(raw)
		if err != nil {
			fmt.Printf("skip %q: %v\n", raw, err)
			continue
		}
		targets = append(targets, p)
	}
	if len(paths) == 0 {
		targets, err = aggregatingCollections(ctx, application)
		if err != nil {
			fmt.Printf("load collections: %v\n", err)
			os.Exit(1)
		}
	}
	if limit > 0 && len(targets) > limit {
		targets = targets[:limit]
	}

	agg := application.Services.Aggregation
	warmed := 0
	for _, p := range targets {
		if dryRun {
			fmt.Printf("would warm %s\n", p)
			continue
		}
		if err := agg.Invalidate(ctx, p); err != nil {
			fmt.Printf("invalidate %s: %v\n", p, err)
		}
		res, err := agg.Resolve(ctx, "", p)
		if err != nil {
			fmt.Printf("resolve %s: %v\n", p, err)
			continue
		}
		warmed++
		fmt.Printf("warmed %s (%d aggregated, %d approved)\n", p, res.Result.Aggregation().Len(), res.Result.ManuallyApproved().Len())
	}
	fmt.Printf("done: %d/%d collections warmed\n", warmed, len(targets))
}

func aggregatingCollections(ctx context.Context, a *app.App) ([]resourceurl.Path, error) {
	host := a.Services.Aggregation.LocalHost().String()
	q := query.TypeTerm{Type: resources.ResourceTypeCollection, Op: query.OpEq}
	dbc := dbctx.Context{Ctx: ctx}

	out := []resourceurl.Path{}
	const page = 500
	for offset := 0; ; offset += page {
		rows, err := a.Repos.Resource.Search(dbc, resourcerepos.SearchParams{
			Hosts:  []string{host},
			Query:  q,
			Limit:  page,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if r.Bool(resources.PropDisplayAggregation) || r.Bool(resources.PropDisplayManuallyApproved) {
				out = append(out, r.Path())
			}
		}
		if len(rows) < page {
			return out, nil
		}
	}
}

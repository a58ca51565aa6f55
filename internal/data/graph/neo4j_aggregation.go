package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	aggdomain "github.com/yungbote/collection-listing/internal/domain/aggregation"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
	"github.com/yungbote/collection-listing/internal/platform/neo4jdb"
)

var schemaStatements = []string{
	`CREATE CONSTRAINT collection_location_url_unique IF NOT EXISTS FOR (l:CollectionLocation) REQUIRE l.url IS UNIQUE`,
}

const (
	edgeAggregates = "AGGREGATES"
	edgeApproves   = "APPROVES"
)

// AggregationEdges flattens a resolved result into edge records from the
// collection to every aggregated or approved location.
func AggregationEdges(collection resourceurl.URL, res aggdomain.Result, syncedAt time.Time) []map[string]any {
	at := syncedAt.UTC().Format(time.RFC3339Nano)
	from := collection.String()
	out := []map[string]any{}
	add := func(kind string, set aggdomain.HostPathSet) {
		for _, u := range set.URLs() {
			out = append(out, map[string]any{
				"from_url":  from,
				"to_url":    u.String(),
				"to_host":   u.HostRoot().String(),
				"to_path":   u.Path.String(),
				"kind":      kind,
				"synced_at": at,
			})
		}
	}
	add(edgeAggregates, res.Aggregation())
	add(edgeApproves, res.ManuallyApproved())
	return out
}

// UpsertAggregationGraph replaces the outgoing aggregation edges of
// collection with the ones in res. A nil client is a no-op.
func UpsertAggregationGraph(
	ctx context.Context,
	client *neo4jdb.Client,
	collection resourceurl.URL,
	res aggdomain.Result,
) error {
	if !client.Available() || collection.IsZero() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	edges := AggregationEdges(collection, res, time.Now())

	client.EnsureSchema(ctx, schemaStatements...)

	session := client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		r, err := tx.Run(ctx, `
MERGE (c:CollectionLocation {url: $from_url})
WITH c
OPTIONAL MATCH (c)-[old:AGGREGATES|APPROVES]->()
DELETE old
`, map[string]any{"from_url": collection.String()})
		if err != nil {
			return nil, err
		}
		if _, err := r.Consume(ctx); err != nil {
			return nil, err
		}

		if len(edges) == 0 {
			return nil, nil
		}
		for _, kind := range []string{edgeAggregates, edgeApproves} {
			rels := make([]map[string]any, 0, len(edges))
			for _, e := range edges {
				if e["kind"] == kind {
					rels = append(rels, e)
				}
			}
			if len(rels) == 0 {
				continue
			}
			r, err := tx.Run(ctx, `
UNWIND $rels AS r
MATCH (c:CollectionLocation {url: r.from_url})
MERGE (t:CollectionLocation {url: r.to_url})
SET t.host = r.to_host,
    t.path = r.to_path
MERGE (c)-[e:`+kind+`]->(t)
SET e.synced_at = r.synced_at
`, map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := r.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// DeleteAggregationGraph drops the outgoing aggregation edges of collection.
func DeleteAggregationGraph(ctx context.Context, client *neo4jdb.Client, collection resourceurl.URL) error {
	if !client.Available() || collection.IsZero() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	session := client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		r, err := tx.Run(ctx, `
MATCH (c:CollectionLocation {url: $url})-[old:AGGREGATES|APPROVES]->()
DELETE old
`, map[string]any{"url": collection.String()})
		if err != nil {
			return nil, err
		}
		_, err = r.Consume(ctx)
		return nil, err
	})
	return err
}

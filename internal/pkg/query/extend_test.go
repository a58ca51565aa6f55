package query

import (
	"errors"
	"testing"

	pkgerrors "github.com/yungbote/collection-listing/internal/pkg/errors"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
)

var aggPaths = []resourceurl.Path{"/events", "/archive"}

func TestExtendWithAggregation(t *testing.T) {
	cases := []struct {
		name string
		in   Query
		want string
	}{
		{
			name: "single_prefix",
			in:   Prefix("/news"),
			want: `(uri^="/news" OR uri^="/events" OR uri^="/archive")`,
		},
		{
			name: "prefix_in_and",
			in:   And{Queries: []Query{Prefix("/news"), TypeTerm{Type: "file", Op: OpEq}}},
			want: `((uri^="/news" OR uri^="/events" OR uri^="/archive") AND type="file")`,
		},
		{
			name: "not_equal_prefix_untouched",
			in:   And{Queries: []Query{URIPrefix{URI: "/news/drafts", Op: OpNe}, Prefix("/news")}},
			want: `(uri!^="/news/drafts" AND (uri^="/news" OR uri^="/events" OR uri^="/archive"))`,
		},
		{
			name: "or_group_is_extended_in_place",
			in:   And{Queries: []Query{Or{Queries: []Query{Prefix("/news"), Prefix("/blog")}}, TypeTerm{Type: "file", Op: OpEq}}},
			want: `((uri^="/news" OR uri^="/blog" OR uri^="/events" OR uri^="/archive") AND type="file")`,
		},
		{
			name: "or_without_prefix_left_alone",
			in:   And{Queries: []Query{Prefix("/news"), Or{Queries: []Query{TypeTerm{Type: "file", Op: OpEq}, TypeTerm{Type: "image", Op: OpEq}}}}},
			want: `((uri^="/news" OR uri^="/events" OR uri^="/archive") AND (type="file" OR type="image"))`,
		},
		{
			name: "nested_and_inside_or",
			in: Or{Queries: []Query{
				And{Queries: []Query{Prefix("/news"), URIDepth{Depth: 2, Op: OpEq}}},
				PropertyTerm{Name: "featured", Value: "true", Op: OpEq},
			}},
			want: `(((uri^="/news" OR uri^="/events" OR uri^="/archive") AND depth=2) OR featured="true")`,
		},
		{
			name: "include_self_is_inherited",
			in:   URIPrefix{URI: "/news", Op: OpEq, IncludeSelf: true},
			want: `(uri^="/news"+self OR uri^="/events"+self OR uri^="/archive"+self)`,
		},
		{
			name: "existing_aggregation_prefix_not_duplicated",
			in:   Or{Queries: []Query{Prefix("/news"), Prefix("/events")}},
			want: `(uri^="/news" OR uri^="/events" OR uri^="/archive")`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtendWithAggregation(tc.in, aggPaths)
			if err != nil {
				t.Fatalf("ExtendWithAggregation: %v", err)
			}
			if got.String() != tc.want {
				t.Fatalf("query:\n want=%s\n  got=%s", tc.want, got.String())
			}
		})
	}
}

func TestExtendWithAggregationKeepsInputUnchanged(t *testing.T) {
	in := And{Queries: []Query{Prefix("/news"), TypeTerm{Type: "file", Op: OpEq}}}
	before := in.String()
	if _, err := ExtendWithAggregation(in, aggPaths); err != nil {
		t.Fatalf("ExtendWithAggregation: %v", err)
	}
	if in.String() != before {
		t.Fatalf("input mutated: %s", in.String())
	}
}

func TestExtendWithAggregationNoPaths(t *testing.T) {
	in := Prefix("/news")
	got, err := ExtendWithAggregation(in, nil)
	if err != nil || got != Query(in) {
		t.Fatalf("expected passthrough, got=%v err=%v", got, err)
	}
}

func TestExtendWithAggregationRejectsUnsupportedShapes(t *testing.T) {
	for _, in := range []Query{
		TypeTerm{Type: "file", Op: OpEq},
		PropertyTerm{Name: "featured", Value: "true", Op: OpEq},
		URIDepth{Depth: 1, Op: OpEq},
		nil,
	} {
		_, err := ExtendWithAggregation(in, aggPaths)
		var unsupported *UnsupportedQueryError
		if !errors.As(err, &unsupported) {
			t.Fatalf("%v: expected UnsupportedQueryError, got=%v", in, err)
		}
		if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
			t.Fatalf("%v: expected ErrInvalidArgument in chain", in)
		}
	}
}

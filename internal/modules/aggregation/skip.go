package aggregation

import (
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
)

// SkipReason names why a reference or a node was not followed.
type SkipReason string

const (
	SkipMalformedReference SkipReason = "malformed_reference"
	SkipSelfReference      SkipReason = "self_reference"
	SkipAlreadyResolved    SkipReason = "already_resolved"
	SkipFanoutLimit        SkipReason = "fanout_limit"
	SkipLookupFailed       SkipReason = "lookup_failed"
	SkipRemoteHostDisabled SkipReason = "remote_host_disabled"
)

type Skip struct {
	Reason SkipReason
	// Node is the canonical URL of the node whose property held the value.
	Node  resourceurl.URL
	Value string
	Depth int
	Err   error
}

// Report describes what one resolution did besides producing its result.
type Report struct {
	Skips   []Skip
	Lookups int
	// Depth is the deepest recursion level that was visited.
	Depth int
}

func (r Report) Count(reason SkipReason) int {
	n := 0
	for _, s := range r.Skips {
		if s.Reason == reason {
			n++
		}
	}
	return n
}

package aggregation

import (
	"encoding/json"

	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
)

// Result is the resolved aggregation of one collection. It is immutable:
// accessors hand out copies.
type Result struct {
	aggregation      HostPathSet
	manuallyApproved HostPathSet
}

func NewResult(aggregation, manuallyApproved HostPathSet) Result {
	if aggregation == nil {
		aggregation = HostPathSet{}
	}
	if manuallyApproved == nil {
		manuallyApproved = HostPathSet{}
	}
	return Result{aggregation: aggregation.Clone(), manuallyApproved: manuallyApproved.Clone()}
}

func (r Result) Aggregation() HostPathSet { return r.aggregation.Clone() }

func (r Result) ManuallyApproved() HostPathSet { return r.manuallyApproved.Clone() }

func (r Result) IsEmpty() bool {
	return r.aggregation.Len() == 0 && r.manuallyApproved.Len() == 0
}

// LocalAggregationPaths returns the aggregated paths on the given host.
func (r Result) LocalAggregationPaths(local resourceurl.URL) []resourceurl.Path {
	return r.aggregation.Paths(local)
}

func (r Result) LocalManuallyApprovedPaths(local resourceurl.URL) []resourceurl.Path {
	return r.manuallyApproved.Paths(local)
}

// IncludesOtherHosts reports whether either set reaches beyond the local host.
func (r Result) IncludesOtherHosts(local resourceurl.URL) bool {
	root := local.HostRoot()
	for _, set := range []HostPathSet{r.aggregation, r.manuallyApproved} {
		for h := range set {
			if h != root {
				return true
			}
		}
	}
	return false
}

func (r Result) Equal(other Result) bool {
	return r.aggregation.Equal(other.aggregation) && r.manuallyApproved.Equal(other.manuallyApproved)
}

type resultJSON struct {
	Aggregation      HostPathSet `json:"aggregation"`
	ManuallyApproved HostPathSet `json:"manually_approved"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{Aggregation: r.aggregation, ManuallyApproved: r.manuallyApproved})
}

func (r *Result) UnmarshalJSON(b []byte) error {
	var raw resultJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = NewResult(raw.Aggregation, raw.ManuallyApproved)
	return nil
}

package aggregation

import (
	"encoding/json"
	"sort"

	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
)

type PathSet map[resourceurl.Path]struct{}

// Sorted returns the paths in lexical order.
func (s PathSet) Sorted() []resourceurl.Path {
	out := make([]resourceurl.Path, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HostPathSet groups paths by host root URL. A host is only present while it
// holds at least one path.
type HostPathSet map[resourceurl.URL]PathSet

func NewHostPathSet() HostPathSet { return HostPathSet{} }

// Add records u under its host root. It reports false when u was already present.
func (s HostPathSet) Add(u resourceurl.URL) bool {
	if u.IsZero() || u.Path == "" {
		return false
	}
	host := u.HostRoot()
	paths, ok := s[host]
	if !ok {
		paths = PathSet{}
		s[host] = paths
	}
	if _, dup := paths[u.Path]; dup {
		return false
	}
	paths[u.Path] = struct{}{}
	return true
}

func (s HostPathSet) Remove(u resourceurl.URL) {
	host := u.HostRoot()
	paths, ok := s[host]
	if !ok {
		return
	}
	delete(paths, u.Path)
	if len(paths) == 0 {
		delete(s, host)
	}
}

func (s HostPathSet) Contains(u resourceurl.URL) bool {
	paths, ok := s[u.HostRoot()]
	if !ok {
		return false
	}
	_, ok = paths[u.Path]
	return ok
}

// Paths returns the sorted paths recorded for host (any URL on the host works).
func (s HostPathSet) Paths(host resourceurl.URL) []resourceurl.Path {
	return s[host.HostRoot()].Sorted()
}

func (s HostPathSet) Hosts() []resourceurl.URL {
	out := make([]resourceurl.URL, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (s HostPathSet) URLs() []resourceurl.URL {
	out := []resourceurl.URL{}
	for _, h := range s.Hosts() {
		for _, p := range s[h].Sorted() {
			out = append(out, h.WithPath(p))
		}
	}
	return out
}

func (s HostPathSet) Len() int {
	n := 0
	for _, paths := range s {
		n += len(paths)
	}
	return n
}

func (s HostPathSet) Equal(other HostPathSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for h, paths := range s {
		for p := range paths {
			if !other.Contains(h.WithPath(p)) {
				return false
			}
		}
	}
	return true
}

func (s HostPathSet) Clone() HostPathSet {
	out := make(HostPathSet, len(s))
	for h, paths := range s {
		cp := make(PathSet, len(paths))
		for p := range paths {
			cp[p] = struct{}{}
		}
		out[h] = cp
	}
	return out
}

func (s HostPathSet) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, len(s))
	for h, paths := range s {
		list := make([]string, 0, len(paths))
		for _, p := range paths.Sorted() {
			list = append(list, p.String())
		}
		out[h.String()] = list
	}
	return json.Marshal(out)
}

func (s *HostPathSet) UnmarshalJSON(b []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := HostPathSet{}
	for host, paths := range raw {
		root, err := resourceurl.Parse(host)
		if err != nil {
			return err
		}
		for _, rp := range paths {
			p, err := resourceurl.ParsePath(rp)
			if err != nil {
				return err
			}
			out.Add(root.WithPath(p))
		}
	}
	*s = out
	return nil
}

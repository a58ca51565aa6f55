package resourceurl

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrInvalidPath = errors.New("invalid resource path")
	ErrInvalidURL  = errors.New("invalid resource url")
)

// Path is an absolute, cleaned resource path. Only the root carries a
// trailing slash.
type Path string

const Root Path = "/"

func ParsePath(raw string) (Path, error) {
	s := strings.TrimSpace(raw)
	if s == "" || !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}
	if strings.ContainsAny(s, "?#") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}
	return Path(path.Clean(s)), nil
}

// MustPath panics on invalid input; meant for constants and tests.
func MustPath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) String() string { return string(p) }

func (p Path) IsRoot() bool { return p == Root }

func (p Path) Name() string {
	if p.IsRoot() {
		return ""
	}
	return path.Base(string(p))
}

func (p Path) Parent() (Path, bool) {
	if p.IsRoot() || p == "" {
		return "", false
	}
	return Path(path.Dir(string(p))), true
}

func (p Path) Depth() int {
	if p.IsRoot() || p == "" {
		return 0
	}
	return strings.Count(string(p), "/")
}

// IsAncestorOf reports whether other lies strictly below p.
func (p Path) IsAncestorOf(other Path) bool {
	if p == "" || other == "" || p == other {
		return false
	}
	if p.IsRoot() {
		return true
	}
	return strings.HasPrefix(string(other), string(p)+"/")
}

// Extend appends a single segment.
func (p Path) Extend(segment string) (Path, error) {
	seg := strings.Trim(segment, "/")
	if seg == "" || strings.Contains(seg, "/") || seg == "." || seg == ".." {
		return "", fmt.Errorf("%w: segment %q", ErrInvalidPath, segment)
	}
	if p.IsRoot() {
		return Path("/" + seg), nil
	}
	return Path(string(p) + "/" + seg), nil
}

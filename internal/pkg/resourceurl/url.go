package resourceurl

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URL identifies a resource on a content host: scheme, host (with a
// non-default port) and Path. Query strings and fragments are dropped.
type URL struct {
	Scheme string
	Host   string
	Path   Path
}

func Parse(raw string) (URL, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return URL{}, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(s)
	if err != nil {
		return URL{}, fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return URL{}, fmt.Errorf("%w: %q: unsupported scheme", ErrInvalidURL, raw)
	}
	host := normalizeHost(scheme, u.Host)
	if host == "" {
		return URL{}, fmt.Errorf("%w: %q: missing host", ErrInvalidURL, raw)
	}
	p := Root
	if u.Path != "" {
		p, err = ParsePath(u.Path)
		if err != nil {
			return URL{}, fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
		}
	}
	return URL{Scheme: scheme, Host: host, Path: p}, nil
}

func MustParse(raw string) URL {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// Resolve interprets ref relative to base: absolute URLs pass through,
// root-relative paths take base's scheme and host.
func Resolve(ref string, base URL) (URL, error) {
	s := strings.TrimSpace(ref)
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		if base.IsZero() {
			return URL{}, fmt.Errorf("%w: %q: no base host", ErrInvalidURL, ref)
		}
		p, err := ParsePath(s)
		if err != nil {
			return URL{}, err
		}
		return base.WithPath(p), nil
	}
	return Parse(s)
}

func normalizeHost(scheme, hostport string) string {
	hp := strings.ToLower(strings.TrimSpace(hostport))
	if hp == "" {
		return ""
	}
	host, port, err := net.SplitHostPort(hp)
	if err != nil {
		return strings.TrimSuffix(hp, ":")
	}
	if port == "" || (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return hp
}

func (u URL) IsZero() bool { return u.Scheme == "" && u.Host == "" }

func (u URL) HostRoot() URL { return URL{Scheme: u.Scheme, Host: u.Host, Path: Root} }

func (u URL) WithPath(p Path) URL { return URL{Scheme: u.Scheme, Host: u.Host, Path: p} }

func (u URL) SameHost(other URL) bool {
	return u.Scheme == other.Scheme && u.Host == other.Host
}

func (u URL) Equal(other URL) bool {
	return u.SameHost(other) && u.Path == other.Path
}

func (u URL) String() string {
	if u.IsZero() {
		return ""
	}
	p := u.Path
	if p == "" {
		p = Root
	}
	return u.Scheme + "://" + u.Host + string(p)
}

func (u URL) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *URL) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

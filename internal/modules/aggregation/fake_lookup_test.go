package aggregation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yungbote/collection-listing/internal/domain/resources"
	pkgerrors "github.com/yungbote/collection-listing/internal/pkg/errors"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

type fakeLookup struct {
	mu        sync.Mutex
	local     resourceurl.URL
	multiHost bool
	byURL     map[resourceurl.URL]*resources.Resource
	failFor   map[resourceurl.URL]error

	localCalls [][]resourceurl.Path
	multiCalls [][]resourceurl.URL
	tokens     []string
}

func newFakeLookup(local string) *fakeLookup {
	return &fakeLookup{
		local:   resourceurl.MustParse(local).HostRoot(),
		byURL:   map[resourceurl.URL]*resources.Resource{},
		failFor: map[resourceurl.URL]error{},
	}
}

// collection registers a collection at rawURL (absolute, or a path on the local host).
func (f *fakeLookup) collection(rawURL string, props map[string]any) *resources.Resource {
	u, err := resourceurl.Resolve(rawURL, f.local)
	if err != nil {
		panic(err)
	}
	r := resources.New(u, u.Path, resources.ResourceTypeCollection, props)
	f.byURL[u] = r
	return r
}

// alias makes a lookup of rawURL return target.
func (f *fakeLookup) alias(rawURL string, target *resources.Resource) {
	u, err := resourceurl.Resolve(rawURL, f.local)
	if err != nil {
		panic(err)
	}
	f.byURL[u] = target
}

func (f *fakeLookup) fail(rawURL string, err error) {
	u, rerr := resourceurl.Resolve(rawURL, f.local)
	if rerr != nil {
		panic(rerr)
	}
	f.failFor[u] = err
}

func (f *fakeLookup) LocalHost() resourceurl.URL { return f.local }

func (f *fakeLookup) MultiHostEnabled() bool { return f.multiHost }

func (f *fakeLookup) LookupLocal(ctx context.Context, token string, paths []resourceurl.Path) ([]Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.localCalls = append(f.localCalls, append([]resourceurl.Path(nil), paths...))
	f.tokens = append(f.tokens, token)
	urls := make([]resourceurl.URL, 0, len(paths))
	for _, p := range paths {
		urls = append(urls, f.local.WithPath(p))
	}
	return f.find(urls)
}

func (f *fakeLookup) LookupMultiHost(ctx context.Context, token string, urls []resourceurl.URL) ([]Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.multiCalls = append(f.multiCalls, append([]resourceurl.URL(nil), urls...))
	f.tokens = append(f.tokens, token)
	return f.find(urls)
}

func (f *fakeLookup) find(urls []resourceurl.URL) ([]Node, error) {
	out := []Node{}
	for _, u := range urls {
		if err := f.failFor[u]; err != nil {
			return nil, err
		}
		if r, ok := f.byURL[u]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLookup) Retrieve(ctx context.Context, token string, path resourceurl.Path) (Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byURL[f.local.WithPath(path)]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("resource %s: %w", path, pkgerrors.ErrNotFound)
}

func (f *fakeLookup) lookedUp() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, call := range f.localCalls {
		for _, p := range call {
			out = append(out, f.local.WithPath(p).String())
		}
	}
	for _, call := range f.multiCalls {
		for _, u := range call {
			out = append(out, u.String())
		}
	}
	return out
}

func observedLogger(tb testing.TB) (*logger.Logger, *observer.ObservedLogs) {
	tb.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.FromZap(zap.New(core)), logs
}

func aggregating(refs ...string) map[string]any {
	vals := make([]any, 0, len(refs))
	for _, r := range refs {
		vals = append(vals, r)
	}
	return map[string]any{
		resources.PropDisplayAggregation: true,
		resources.PropAggregation:        vals,
	}
}

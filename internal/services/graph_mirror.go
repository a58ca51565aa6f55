package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	aggdomain "github.com/yungbote/collection-listing/internal/domain/aggregation"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

const (
	defaultGraphMirrorConcurrency = 4
	graphMirrorTimeout            = 10 * time.Second
)

type upsertGraphFunc func(ctx context.Context, collection resourceurl.URL, res aggdomain.Result) error

// graphMirror runs best-effort graph writes in the background with at most
// limit in flight. Writes arriving while it is full or closed are dropped;
// a later resolution of the same collection writes the edges again.
type graphMirror struct {
	log    *logger.Logger
	upsert upsertGraphFunc

	base   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	g      errgroup.Group
}

func newGraphMirror(log *logger.Logger, upsert upsertGraphFunc, limit int) *graphMirror {
	if limit <= 0 {
		limit = defaultGraphMirrorConcurrency
	}
	base, cancel := context.WithCancel(context.Background())
	m := &graphMirror{log: log, upsert: upsert, base: base, cancel: cancel}
	m.g.SetLimit(limit)
	return m
}

// enqueue reports whether the write was started.
func (m *graphMirror) enqueue(collection resourceurl.URL, res aggdomain.Result) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	started := m.g.TryGo(func() error {
		ctx, cancel := context.WithTimeout(m.base, graphMirrorTimeout)
		defer cancel()
		if err := m.upsert(ctx, collection, res); err != nil {
			m.log.Warn("Aggregation graph mirror failed (continuing)", "collection", collection.String(), "error", err)
		}
		return nil
	})
	if !started {
		m.log.Warn("Aggregation graph mirror busy, dropping write", "collection", collection.String())
	}
	return started
}

// close stops accepting writes and waits for running ones. When ctx ends
// first the running writes are cancelled and ctx's error is returned.
func (m *graphMirror) close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	defer m.cancel()

	done := make(chan struct{})
	go func() {
		_ = m.g.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		m.cancel()
		<-done
		return ctx.Err()
	}
}

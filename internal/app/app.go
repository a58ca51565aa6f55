package app

import (
	"context"
	"fmt"
	"time"

	apphttp "github.com/yungbote/collection-listing/internal/http"
	"github.com/yungbote/collection-listing/internal/observability"
	"github.com/yungbote/collection-listing/internal/platform/envutil"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

const closeTimeout = 10 * time.Second

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *apphttp.Server

	// closers run in reverse order on Close.
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func(context.Context) error
}

// New loads configuration and wires clients, repos, services and the HTTP
// server. On error everything opened so far is released.
func New(ctx context.Context) (a *App, err error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a = &App{Log: log}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	log.Info("Loading configuration...")
	if a.Cfg, err = LoadConfig(log); err != nil {
		return a, fmt.Errorf("load config: %w", err)
	}
	a.onClose("otel", observability.InitOTel(ctx, log, a.Cfg.Otel))

	if a.Clients, err = wireClients(a.Cfg, log); err != nil {
		return a, err
	}
	a.onClose("clients", func(ctx context.Context) error {
		a.Clients.Close(ctx)
		return nil
	})

	a.Repos = wireRepos(a.Clients.Gorm(), log)
	if a.Services, err = wireServices(a.Cfg, log, a.Clients, a.Repos); err != nil {
		return a, err
	}
	a.onClose("aggregation", a.Services.Aggregation.Close)
	a.Server = wireServer(a.Cfg, log, a.Clients,
		wireHandlers(log, a.Clients, a.Services),
		wireMiddleware(log, a.Services),
	)
	return a, nil
}

func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, namedCloser{name: name, close: fn})
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(ctx); err != nil {
			a.Log.Warn("Shutdown step failed", "step", c.name, "error", err)
		}
	}
	a.closers = nil
	a.Log.Sync()
}

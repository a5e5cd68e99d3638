package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/johanWP/DevSkillTracker/internal/adapters/store"
	"github.com/johanWP/DevSkillTracker/internal/application"
	"github.com/johanWP/DevSkillTracker/internal/config"
	"github.com/johanWP/DevSkillTracker/internal/events"
	httptransport "github.com/johanWP/DevSkillTracker/internal/http"
	"github.com/johanWP/DevSkillTracker/internal/identity"
	"github.com/johanWP/DevSkillTracker/internal/metrics"
)

type eventSink interface {
	application.EventPublisher
	Close(ctx context.Context) error
}

// app is the wired service graph behind the HTTP handler.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	store     backend
	events    eventSink
	provider  *identity.Provider
	gate      *application.IdentityGate
	allowList atomic.Pointer[application.AllowList]
	handler   http.Handler
	watcher   *config.Watcher
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	a.setAllowList(cfg.AdminEmails)
	if len(cfg.AdminEmails) == 0 {
		logger.Warn("admin allow-list is empty; every sign-in will be refused")
	}

	storage, pinger, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.store = storage

	registry := metrics.New()

	a.events = events.Noop{}
	if cfg.NATSURL != "" {
		publisher, err := events.Connect(cfg.NATSURL, events.WithSubjectPrefix(cfg.NATSSubjectPrefix), events.WithLogger(logger))
		if err != nil {
			a.closeStore()
			return nil, err
		}
		a.events = publisher
	}

	serviceOpts := []application.Option{
		application.WithLogger(logger),
		application.WithMetrics(registry),
		application.WithEvents(a.events),
	}

	a.provider = identity.NewProvider(storage, identity.WithSessionTTL(cfg.SessionTTL), identity.WithLogger(logger))
	a.gate = application.NewIdentityGate(a.provider, a.currentAllowList, serviceOpts...)
	if err := a.gate.Start(ctx); err != nil {
		a.Close(context.Background())
		return nil, fmt.Errorf("start identity gate: %w", err)
	}

	directory := application.NewDirectoryService(store.NewDeveloperRepository(storage), serviceOpts...)
	catalog := application.NewCatalogReader(store.NewCatalogRepository(storage), serviceOpts...)
	workflow := application.NewRegistrationWorkflow(directory,
		application.WithAtomicCreate(cfg.AtomicCreate),
		application.WithServiceOptions(serviceOpts...),
	)

	var health httptransport.Pinger
	if pinger != nil {
		health = pinger
	}
	routes := httptransport.RouterConfig{
		Auth:      httptransport.NewAuthHandler(a.provider, a.gate, logger, httptransport.WithSecureCookies(cfg.CookieSecure)),
		Dashboard: httptransport.NewDashboardHandler(directory, catalog, workflow, logger),
		API:       httptransport.NewAPIHandler(directory, catalog, workflow, logger),
		Gate:      a.gate,
		Health:    httptransport.HealthHandler(health, logger),
		Logger:    logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.InstrumentRequests(registry),
		},
	}
	if cfg.MetricsEnabled {
		routes.Metrics = registry.Handler()
	}
	a.handler = httptransport.NewRouter(routes)

	return a, nil
}

func (a *app) currentAllowList() application.AllowList {
	return *a.allowList.Load()
}

func (a *app) setAllowList(emails []string) {
	list := application.NewAllowList(emails)
	a.allowList.Store(&list)
}

// watchConfig swaps in the allow-list of every valid rewrite of the config file and
// signs out sessions that lost access.
func (a *app) watchConfig(ctx context.Context) error {
	if a.cfg.File == "" {
		return nil
	}
	watcher, err := config.Watch(a.cfg.File, func(next config.Config) {
		a.reloadAllowList(ctx, next.AdminEmails)
	}, func(err error) {
		a.logger.Error("config reload rejected", "error", err)
	})
	if err != nil {
		return err
	}
	a.watcher = watcher
	return nil
}

func (a *app) reloadAllowList(ctx context.Context, emails []string) {
	previous := a.currentAllowList()
	a.setAllowList(emails)
	current := a.currentAllowList()
	revoked := a.gate.Revalidate(ctx)
	a.logger.Info("admin allow-list reloaded",
		"admins", current.Len(),
		"added", allowListDiff(current, previous),
		"removed", allowListDiff(previous, current),
		"signed_out", revoked,
	)
}

// allowListDiff returns the entries of from that to does not contain.
func allowListDiff(from, to application.AllowList) []string {
	var diff []string
	for _, email := range from.Emails() {
		if !to.Contains(email) {
			diff = append(diff, email)
		}
	}
	return diff
}

// sweepSessions expires sessions on every tick until ctx is done.
func (a *app) sweepSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.provider.ExpireSessions(ctx); err != nil {
				a.logger.Error("session sweep failed", "error", err)
			}
		}
	}
}

func (a *app) closeStore() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
}

// Close stops background work and releases the store and event connection.
func (a *app) Close(ctx context.Context) {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.logger.Warn("failed to stop config watcher", "error", err)
		}
	}
	if a.gate != nil {
		a.gate.Stop()
	}
	if a.events != nil {
		if err := a.events.Close(ctx); err != nil {
			a.logger.Warn("failed to close event publisher", "error", err)
		}
	}
	a.closeStore()
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Close(closeCtx)
	}()

	if err := a.watchConfig(ctx); err != nil {
		return err
	}
	go a.sweepSessions(ctx, cfg.SessionSweepInterval)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("devskilltracker listening", "addr", server.Addr, "storage", cfg.StorageDriver, "admins", len(cfg.AdminEmails))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

package app

import (
	"context"
	"net/http"
	"time"

	"cras-cadastro/internal/config"
	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/internal/metrics"
	"cras-cadastro/internal/notify"
	"cras-cadastro/internal/repository/inmemory"
	"cras-cadastro/internal/transport/httpserver"
	"cras-cadastro/internal/transport/httpserver/handler"
	"cras-cadastro/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

const sessionSweepInterval = time.Minute

type App struct {
	cfg           config.Config
	log           logger.Logger
	httpServer    *http.Server
	metricsServer *http.Server
	sessions      *inmemory.InMemorySessionCache
	closeStore    closer
}

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing record store", "driver", cfg.Store.Driver)
	store, closeStore, err := newStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var (
		m        *metrics.Metrics
		gauge    notify.SubscriberGauge
		storeObs familydomain.Metrics
	)
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.NewRegistry())
		gauge = m
		storeObs = m
	}

	hub := notify.NewHub(log, gauge)
	sessions := inmemory.NewInMemorySessionCache()

	service := familydomain.NewService(
		familydomain.NewRecords(store, storeObs),
		familydomain.WithNotifier(notify.Multi(notify.NewLogNotifier(log), hub)),
		familydomain.WithMetrics(storeObs),
		familydomain.WithSessionCache(sessions, cfg.SessionTTL),
	)

	log.Info("app: initializing router")
	deps := httpserver.RouterDeps{
		Handlers: handler.New(service, log),
		Notices:  notify.Handler(hub, cfg.CORSOrigins),
	}
	var metricsServer *http.Server
	if m != nil {
		deps.Observer = m
		if cfg.Metrics.Port != "" {
			metricsServer = httpserver.NewOnPort(cfg.Metrics.Port, m.Handler())
		} else {
			deps.Metrics = m.Handler()
		}
	}
	router := httpserver.NewRouter(cfg, deps, log)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:           cfg,
		log:           log,
		httpServer:    srv,
		metricsServer: metricsServer,
		sessions:      sessions,
		closeStore:    closeStore,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

// MetricsServer is nil unless METRICS_PORT is set.
func (a *App) MetricsServer() *http.Server {
	return a.metricsServer
}

// SweepSessions drops expired editing sessions until ctx is done.
func (a *App) SweepSessions(ctx context.Context) error {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := a.sessions.Sweep(); n > 0 {
				a.log.Debug("sessions: expired", "count", n)
			}
		}
	}
}

// Close drops open editing sessions and releases the store.
func (a *App) Close() error {
	a.sessions.Clear()
	if a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cras-cadastro/internal/app"
	"cras-cadastro/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	log := logger.NewFromEnv()
	log.Info("app: starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, log)
	if err != nil {
		log.Critical("app: init failed", "err", err)
		os.Exit(1)
	}

	servers := []*http.Server{application.HTTPServer()}
	if metricsSrv := application.MetricsServer(); metricsSrv != nil {
		servers = append(servers, metricsSrv)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			log.Info("http: listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Critical("http: server failed", "addr", srv.Addr, "err", err)
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		return application.SweepSessions(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("app: shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var shutdownErr error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http: graceful shutdown failed", "addr", srv.Addr, "err", err)
				shutdownErr = err
			}
		}
		return shutdownErr
	})

	exitCode := 0
	if err := g.Wait(); err != nil {
		exitCode = 1
	}

	if err := application.Close(); err != nil {
		log.Error("app: close failed", "err", err)
		exitCode = 1
	}

	if exitCode == 0 {
		log.Info("app: stopped")
		return
	}

	os.Exit(exitCode)
}

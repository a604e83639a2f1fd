package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"job-dashboard/api/rest/routes"
	"job-dashboard/config"
	"job-dashboard/core/dashboard"
	"job-dashboard/core/models"
	"job-dashboard/core/repository"
	"job-dashboard/core/scheduler"
	"job-dashboard/core/spec"
	"job-dashboard/providers/accounts"
	"job-dashboard/providers/curp"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	setupLogging(cfg)
	log := logrus.WithField("service", "job-dashboard")

	variant, err := spec.ParseVariant(cfg.Variant)
	if err != nil {
		log.WithError(err).Fatal("Unknown dashboard variant")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch variant {
	case spec.VariantAccounts:
		backend := accounts.NewClient(cfg.BackendURL, cfg.RequestTimeout, log)
		err = run[models.AccountStage, models.AccountResult](ctx, cfg, variant, backend, log)
	case spec.VariantCURP:
		backend := curp.NewClient(cfg.BackendURL, cfg.RequestTimeout, cfg.DetailCacheTTL, log)
		err = run[models.ProcessStage, models.CURPResult](ctx, cfg, variant, backend, log)
	}
	if err != nil {
		log.WithError(err).Fatal("Dashboard exited with error")
	}
	log.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func run[S models.Stage, R comparable](
	ctx context.Context,
	cfg *config.Config,
	variant spec.Variant,
	backend repository.Backend[S, R],
	log *logrus.Entry,
) error {
	if checker, ok := backend.(repository.HealthChecker); ok {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		msg, err := checker.Ping(pingCtx)
		cancel()
		if err != nil {
			// The dashboard keeps polling; the backend may come up later.
			log.WithError(err).Warn("Backend is not reachable")
		} else {
			log.WithField("backend", cfg.BackendURL).Infof("Backend reachable: %s", msg)
		}
	}

	inbox := dashboard.NewInbox(0, log)
	dash := dashboard.New(backend, dashboard.Options{
		Intervals: scheduler.Intervals{
			Baseline: cfg.BaselineInterval,
			Logs:     cfg.LogPollInterval,
			Ceiling:  cfg.SessionCeiling,
		},
		LogBufferLimit: cfg.LogBufferLimit,
		Notifier:       inbox,
		Logger:         log,
	})

	r := mux.NewRouter()
	routes.SetupRoutes(r, dash, inbox, variant)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dash.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.WithField("variant", variant).Infof("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		dash.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/telescope-ops/obsadmin/services/api/config"
	httpserver "github.com/telescope-ops/obsadmin/services/api/http"
	"github.com/telescope-ops/obsadmin/services/internal/db"
	"github.com/telescope-ops/obsadmin/services/internal/logging"
	"github.com/telescope-ops/obsadmin/services/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("logger error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logging.WithLogger(ctx, logrus.NewEntry(log))

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection error: %v", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	manager, err := pipeline.FromConfig(ctx, cfg.Config, store, reg)
	if err != nil {
		log.Fatalf("pipeline error: %v", err)
	}

	srv := httpserver.New(cfg, manager, store, log, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.WithFields(logrus.Fields{
		"addr":     cfg.ListenAddr(),
		"timezone": cfg.Location.String(),
		"archive":  cfg.Archive.Driver,
	}).Info("REST API listening")

	if err := srv.Run(ctx); err != nil {
		log.Errorf("server error: %v", err)
		store.Close()
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"llm-router/internal/llm-router/config"
	"llm-router/internal/llm-router/server"
	"llm-router/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.NewLogger(
		logger.Options{
			Level:  cfg.Logging.Level,
			File:   cfg.Logging.File,
			Format: cfg.Logging.Format,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize router
	srv, err := server.New(ctx, cfg, registry)
	if err != nil {
		log.Fatalf("Failed to initialise router: %v", err)
	}

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	logger.Info("Router stopped")
}

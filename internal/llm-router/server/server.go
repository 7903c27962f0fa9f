package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"llm-router/internal/llm-router/accounting"
	"llm-router/internal/llm-router/api"
	"llm-router/internal/llm-router/config"
	"llm-router/internal/llm-router/metrics"
	"llm-router/internal/llm-router/service"
	"llm-router/internal/llm-router/service/llm"
	"llm-router/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

// Server owns the router's long-lived resources: the HTTP listener and the
// usage ledger.
type Server struct {
	cfg        *config.Config
	service    *service.RouterService
	accountant *accounting.Accountant
	http       *http.Server
}

func New(ctx context.Context, cfg *config.Config, registry *prometheus.Registry) (*Server, error) {
	providers, err := NewProviders(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create providers: %w", err)
	}

	cat, err := NewCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build model catalog: %w", err)
	}
	if cat.Len() == 0 {
		return nil, errors.New("no catalog model belongs to an enabled provider")
	}

	quality, capabilities, err := cfg.Routing.DefaultConstraints()
	if err != nil {
		return nil, err
	}

	ledger, err := NewLedger(cfg.Ledger)
	if err != nil {
		return nil, err
	}
	accountant := accounting.NewAccountant(ledger)
	if err := accountant.StartRetention(cfg.Ledger.PruneSchedule, cfg.Ledger.RetentionDays); err != nil {
		_ = accountant.Close()
		return nil, err
	}

	routerService := service.NewRouterService(
		cat,
		llm.NewExecutor(providers...),
		accountant,
		service.Defaults{
			MaxCost:              cfg.Routing.DefaultMaxCost,
			MaxLatencyMillis:     cfg.Routing.DefaultMaxLatencyMs,
			MinimumQualityTier:   quality,
			RequiredCapabilities: capabilities,
		},
		metrics.New(registry),
	)

	s := &Server{
		cfg:        cfg,
		service:    routerService,
		accountant: accountant,
		http: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           api.NewRouter(cfg, routerService, registry),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.Server.Timeout,
		},
	}

	logger.Info(
		"Router initialised",
		"providers", cfg.EnabledProviders(),
		"models", cat.Len(),
		"ledger", cfg.Ledger.Driver,
	)
	return s, nil
}

// NewLedger opens the configured ledger backend.
func NewLedger(cfg config.LedgerConfig) (accounting.Ledger, error) {
	switch cfg.Driver {
	case "", "memory":
		return accounting.NewMemoryLedger(), nil
	case "sqlite":
		return accounting.NewSQLiteLedger(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown ledger driver: %q", cfg.Driver)
	}
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) Service() *service.RouterService {
	return s.service
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// closes the ledger.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		_ = s.Close()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := s.http.Shutdown(shutdownCtx)
	if err := s.Close(); err != nil {
		return err
	}
	return shutdownErr
}

// Close stops retention pruning and closes the ledger.
func (s *Server) Close() error {
	return s.accountant.Close()
}

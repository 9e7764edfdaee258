// Package service exposes the runner's operational HTTP endpoints: a
// healthz probe and the Prometheus metrics listener.
package service

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/ethereum/go-ethereum/log"

	"github.com/suiterun/suiterun/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = "8080"

	MetricsHost = "0.0.0.0"
	MetricsPort = "7300"
)

// Service bundles the operational listeners. They are best-effort: a
// listener that fails to start is logged and counted, never fatal to a run.
type Service struct {
	Healthz *HealthzServer
	Metrics *MetricsServer
	log     log.Logger
}

func New() *Service {
	return &Service{
		Healthz: &HealthzServer{},
		Metrics: &MetricsServer{},
		log:     log.New("component", "service"),
	}
}

// Start brings both listeners up in the background and returns immediately.
func (s *Service) Start(ctx context.Context) {
	go s.serve(ctx, "healthz", net.JoinHostPort(HealthzHost, HealthzPort), s.Healthz.Start)
	go s.serve(ctx, "metrics", net.JoinHostPort(MetricsHost, MetricsPort), s.Metrics.Start)
}

func (s *Service) serve(ctx context.Context, name, addr string, start func(context.Context, string) error) {
	s.log.Info("Starting listener", "server", name, "addr", addr)
	if err := start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("Listener failed", "server", name, "error", err)
		metrics.RecordErrorDetails(name+" server failed", err)
	}
}

// Shutdown stops both listeners. Errors are logged only; by this point the
// run outcome is already decided.
func (s *Service) Shutdown() {
	if err := s.Healthz.Shutdown(); err != nil {
		s.log.Warn("Healthz shutdown failed", "error", err)
	}
	if err := s.Metrics.Shutdown(); err != nil {
		s.log.Warn("Metrics shutdown failed", "error", err)
	}
	s.log.Info("Service stopped")
}

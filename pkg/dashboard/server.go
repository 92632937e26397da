// Package dashboard serves parsed benchmark runs as a read-only JSON API.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethpandaops/benchviz/pkg/config"
	"github.com/ethpandaops/benchviz/pkg/loader"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// LoadFunc produces a fresh collection of runs. It is called once on Start
// and again on every reload request.
type LoadFunc func(ctx context.Context) (*loader.Collection, error)

// Server exposes the dashboard HTTP server lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Server = (*server)(nil)

type server struct {
	log        logrus.FieldLogger
	cfg        *config.DashboardConfig
	load       LoadFunc
	runs       atomic.Pointer[loader.Collection]
	reloadMu   sync.Mutex
	httpServer *http.Server
	wg         sync.WaitGroup
}

// NewServer creates a new dashboard server.
func NewServer(
	log logrus.FieldLogger,
	cfg *config.DashboardConfig,
	load LoadFunc,
) Server {
	return newServer(log, cfg, load)
}

func newServer(
	log logrus.FieldLogger,
	cfg *config.DashboardConfig,
	load LoadFunc,
) *server {
	return &server{
		log:  log.WithField("component", "dashboard"),
		cfg:  cfg,
		load: load,
	}
}

// Start loads the runs and starts the HTTP server.
func (s *server) Start(ctx context.Context) error {
	if _, err := s.reload(ctx); err != nil {
		return fmt.Errorf("loading runs: %w", err)
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Bind the listener synchronously so we fail fast on port conflicts.
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Listen, err)
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.log.WithField("listen", ln.Addr().String()).
			Info("Dashboard server starting")

		if err := s.httpServer.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("HTTP server error")
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	s.wg.Wait()

	s.log.Info("Dashboard server stopped")

	return nil
}

// reload reparses the runs and swaps them in. Readers never see a partially
// loaded collection; a failed reload keeps the previous one.
func (s *server) reload(ctx context.Context) (*loader.Collection, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	runs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	s.runs.Store(runs)

	s.log.WithField("runs", runs.Len()).Info("Runs loaded")

	return runs, nil
}

// collection returns the current runs, never nil.
func (s *server) collection() *loader.Collection {
	if c := s.runs.Load(); c != nil {
		return c
	}

	return loader.NewCollection(nil)
}

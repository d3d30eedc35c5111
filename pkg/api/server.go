// Package api serves live scenes over HTTP.
//
// Clients create a scene from its JSON description, then edit it with
// batches of ops. Every read runs a stacking pass first, so responses
// always carry settled depths.
//
// # Routes
//
//	GET    /healthz
//	GET    /version
//	POST   /run                      run a scene with all frames (cached)
//	POST   /scenes                   create a live scene
//	GET    /scenes                   list live scenes
//	GET    /scenes/{id}              depths after a pass
//	POST   /scenes/{id}/ops          apply a frame of ops, then pass
//	GET    /scenes/{id}/order        paint order
//	GET    /scenes/{id}/verify       invariant violations
//	GET    /scenes/{id}/diagram      node-link diagram (?format=dot|svg|png)
//	DELETE /scenes/{id}
//
// Errors are JSON objects {"code": ..., "message": ...} where code is one
// of the [errors.Code] values.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/pipeline"
)

// Defaults.
const (
	DefaultMaxBody         = 1 << 20
	DefaultCleanupInterval = time.Minute
	shutdownTimeout        = 3 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr      string
	MaxScenes int
	SceneTTL  time.Duration
	ZMax      float64
	MaxPasses int
	MaxBody   int64
}

// Server is the HTTP API.
type Server struct {
	cfg    Config
	store  *Store
	runner *pipeline.Runner
	logger *log.Logger

	handler    http.Handler
	httpServer *http.Server
}

// New creates a server. A nil runner runs scenes without a cache.
func New(cfg Config, runner *pipeline.Runner, logger *log.Logger) (*Server, error) {
	if err := errors.ValidateAddr(cfg.Addr); err != nil {
		return nil, err
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}
	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = pipeline.DefaultMaxPasses
	}
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}

	s := &Server{
		cfg:    cfg,
		store:  NewStore(cfg.MaxScenes, cfg.SceneTTL),
		runner: runner,
		logger: logger.WithPrefix("api"),
	}
	s.handler = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Store returns the live scene store.
func (s *Server) Store() *Store { return s.store }

// Run listens on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("listening", "addr", ln.Addr().String())

	go s.cleanupLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) cleanupLoop(ctx context.Context) {
	if s.cfg.SceneTTL <= 0 {
		return
	}
	t := time.NewTicker(DefaultCleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.store.Cleanup(ctx); n > 0 {
				s.logger.Debug("expired scenes", "count", n)
			}
		}
	}
}

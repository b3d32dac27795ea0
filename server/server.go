// Package server exposes the HTTP API: the cache control surface plus the
// address-lookup endpoints that read through the shared cache.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mumair738/airdrop-checker-sub011/chain"
	"github.com/mumair738/airdrop-checker-sub011/config"
	"github.com/mumair738/airdrop-checker-sub011/errors"
	"github.com/mumair738/airdrop-checker-sub011/metric"
	"github.com/mumair738/airdrop-checker-sub011/pkg/cache"
)

// Server is the HTTP API server. All route handlers share one cache
// instance; values are stored as pre-serialized JSON blobs.
type Server struct {
	cfg      *config.Config
	cache    cache.Cache[json.RawMessage]
	rpc      *chain.RPCClient
	indexer  *chain.IndexerClient
	logger   *slog.Logger
	registry *metric.Registry

	mu     sync.Mutex
	server *http.Server
}

// New creates the API server. The metrics registry may be nil, in which
// case per-request metrics are not recorded.
func New(cfg *config.Config, c cache.Cache[json.RawMessage], rpc *chain.RPCClient,
	indexer *chain.IndexerClient, logger *slog.Logger, registry *metric.Registry) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		cache:    c,
		rpc:      rpc,
		indexer:  indexer,
		logger:   logger,
		registry: registry,
	}
}

// Handler builds the route table. Exposed separately from Start so tests
// can drive it through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/cache", s.handleCache)
	mux.HandleFunc("/api/portfolio", s.handlePortfolio)
	mux.HandleFunc("/api/airdrop-check", s.handleAirdropCheck)
	mux.HandleFunc("/api/token-price", s.handleTokenPrice)

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return s.withMiddleware(mux)
}

// Start begins serving HTTP requests. Blocks until the server stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Server", "Start",
			"server already running")
	}

	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("API server starting", "addr", s.cfg.Server.Addr)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.WrapFatal(err, "Server", "Start", "HTTP server failed")
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Info("API server stopping")
	if err := srv.Shutdown(ctx); err != nil {
		return errors.WrapTransient(err, "Server", "Stop", "graceful shutdown")
	}
	return nil
}

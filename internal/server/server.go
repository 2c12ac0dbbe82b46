// Package server implements the HTTP API, middleware, and request handlers
// exposing server queries over JSON.
package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/bfquery/internal/config"
	"github.com/woozymasta/bfquery/internal/game"
	"github.com/woozymasta/bfquery/internal/storage"
)

// cacheGCInterval is how often stale endpoints are pruned from the cache.
const cacheGCInterval = 10 * time.Minute

// New creates a new Server instance with the provided resolver, endpoint cache, and configuration.
func New(resolver Resolver, cache *storage.Repository, cfg *config.Config) *Server {
	return &Server{
		resolver:       resolver,
		cache:          cache,
		query:          game.QueryServer,
		queryOptions:   cfg.Query,
		authToken:      cfg.Server.AuthToken,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.Server.HardLimitCount,
		hardLimitWin:   cfg.Server.HardLimitWin,
		cacheTTL:       cfg.Lookup.CacheTTL,

		shutdown: make(chan struct{}),
	}
}

// StartWorkers starts the cache cleanup routine.
func (s *Server) StartWorkers() {
	if s.cache == nil {
		return
	}

	s.wg.Add(1)
	go s.gcEndpointCache()
}

// StopWorkers stops the background routines and waits for them to exit.
func (s *Server) StopWorkers() {
	close(s.shutdown)
	s.wg.Wait()
}

// Handler configures the HTTP routes and returns the main handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.Handler {
		return s.RateLimitMiddleware(AdminAuthMiddleware(s.authToken, h))
	}

	mux.Handle("GET /api/servers/{platform}/{guid}", protect(s.handleServer))
	mux.Handle("GET /api/query", protect(s.handleQuery))
	mux.Handle("GET /api/endpoints", protect(s.handleEndpoints))
	mux.Handle("GET /api/version", http.HandlerFunc(s.handleVersion))

	return s.LoggingMiddleware(mux)
}

// gcEndpointCache periodically removes endpoints older than the cache TTL.
func (s *Server) gcEndpointCache() {
	defer s.wg.Done()

	ticker := time.NewTicker(cacheGCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			n, err := s.cache.DeleteStale(s.cacheTTL)
			if err != nil {
				log.Error().Err(err).Msg("Failed to prune endpoint cache")
				continue
			}
			if n > 0 {
				log.Debug().Int64("count", n).Msg("Stale endpoints pruned")
			}
		}
	}
}

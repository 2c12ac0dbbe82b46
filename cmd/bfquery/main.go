// main is the entry point of the bfquery application.
// It initializes the configuration, logger, lookup cache, GeoIP provider,
// then either queries the given servers or serves the HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/bfquery/internal/battlelog"
	"github.com/woozymasta/bfquery/internal/config"
	"github.com/woozymasta/bfquery/internal/geoip"
	"github.com/woozymasta/bfquery/internal/logger"
	"github.com/woozymasta/bfquery/internal/monitor"
	"github.com/woozymasta/bfquery/internal/resolve"
	"github.com/woozymasta/bfquery/internal/server"
	"github.com/woozymasta/bfquery/internal/storage"
	"github.com/woozymasta/bfquery/internal/vars"
)

func main() {
	cfg := config.Parse()
	logger.Setup(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg)
	stop()

	if err != nil {
		log.Error().Err(err).Msg("bfquery failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// GeoIP
	var geoProvider *geoip.Provider
	if cfg.GeoIP.Path != "" {
		if err := geoip.EnsureDB(ctx, cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
			log.Error().Err(err).Msg("Failed to download GeoIP database")
		}

		p, err := geoip.Open(cfg.GeoIP.Path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		} else {
			geoProvider = p
			defer func() {
				if err := geoProvider.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing GeoIP provider")
				}
			}()
		}
	}

	// Lookup cache
	var store *storage.Repository
	if cfg.Storage.Path != "" {
		s, err := storage.New(cfg.Storage.Path)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Storage.Path).Msg("Failed to open lookup cache, caching disabled")
		} else {
			store = s
			defer func() {
				if err := store.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing database")
				}
			}()

			if n, err := store.DeleteStale(cfg.Lookup.CacheTTL); err != nil {
				log.Warn().Err(err).Msg("Failed to prune lookup cache")
			} else if n > 0 {
				log.Debug().Int64("count", n).Msg("Stale endpoints pruned")
			}
		}
	}

	userAgent := cfg.Lookup.UserAgent
	if userAgent == "" {
		userAgent = vars.UserAgent()
	}
	lookup := battlelog.New(cfg.Lookup.URL, userAgent, cfg.Lookup.Timeout)
	resolver := resolve.New(lookup, store, geoProvider, cfg.Lookup.CacheTTL)

	if cfg.Serving() {
		return serve(ctx, cfg, resolver, store)
	}

	targets := make([]monitor.Target, 0, len(cfg.Args.GUIDs)+1)
	if cfg.Direct() {
		ep, err := resolver.Direct(cfg.Query.Address, cfg.Query.GameID)
		if err != nil {
			return err
		}
		targets = append(targets, monitor.Target{Direct: &ep})
	}
	for _, guid := range cfg.Args.GUIDs {
		targets = append(targets, monitor.Target{GUID: guid, Platform: cfg.Query.Platform})
	}

	return monitor.New(resolver, cfg.Query, cfg.Monitor, os.Stdout).Run(ctx, targets)
}

func serve(ctx context.Context, cfg *config.Config, resolver *resolve.Resolver, store *storage.Repository) error {
	srvHandler := server.New(resolver, store, cfg)
	srvHandler.StartWorkers()

	// A request may wait for a Battlelog lookup and both handshake round trips.
	writeTimeout := cfg.Lookup.Timeout + 2*cfg.Query.Timeout + 5*time.Second

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srvHandler.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Server.Address).Str("version", vars.Version).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		srvHandler.StopWorkers()
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	srvHandler.StopWorkers()
	log.Info().Msg("Server exited")

	return nil
}

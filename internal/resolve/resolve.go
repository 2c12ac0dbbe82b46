// Package resolve turns server GUIDs or direct addresses into query
// endpoints, going through the SQLite cache before Battlelog and tagging the
// result with its GeoIP country.
package resolve

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/bfquery/internal/battlelog"
	"github.com/woozymasta/bfquery/internal/geoip"
	"github.com/woozymasta/bfquery/internal/models"
	"github.com/woozymasta/bfquery/internal/storage"
)

// Lookup resolves a GUID remotely; *battlelog.Client implements it.
type Lookup interface {
	Resolve(ctx context.Context, guid, platform string) (models.Endpoint, error)
}

// Resolver combines the remote lookup with the optional cache and GeoIP
// provider. Both may be nil.
type Resolver struct {
	lookup Lookup
	cache  *storage.Repository
	geo    *geoip.Provider
	ttl    time.Duration
}

// New creates a Resolver. Cached endpoints older than ttl are resolved again.
func New(lookup Lookup, cache *storage.Repository, geo *geoip.Provider, ttl time.Duration) *Resolver {
	return &Resolver{
		lookup: lookup,
		cache:  cache,
		geo:    geo,
		ttl:    ttl,
	}
}

// Resolve returns the endpoint of the server with guid on platform.
// The endpoint is cached under the requested guid and platform, whatever
// spelling Battlelog answers with.
func (r *Resolver) Resolve(ctx context.Context, guid, platform string) (models.Endpoint, error) {
	if platform == "" {
		platform = battlelog.DefaultPlatform
	}
	logCtx := log.With().Str("guid", guid).Str("platform", platform).Logger()

	if r.cache != nil {
		cached, err := r.cache.GetEndpoint(platform, guid, r.ttl)
		if err != nil {
			logCtx.Warn().Err(err).Msg("Failed to read endpoint cache")
		} else if cached != nil {
			logCtx.Debug().Str("address", cached.Address()).Msg("Endpoint served from cache")
			return r.tag(*cached), nil
		}
	}

	ep, err := r.lookup.Resolve(ctx, guid, platform)
	if err != nil {
		return models.Endpoint{}, err
	}

	ep.GUID = guid
	ep.Platform = platform

	if r.cache != nil {
		if err := r.cache.PutEndpoint(ep); err != nil {
			logCtx.Warn().Err(err).Msg("Failed to cache endpoint")
		}
	}

	return r.tag(ep), nil
}

// Direct builds an endpoint for a known address and game id.
func (r *Resolver) Direct(addr string, gameID uint64) (models.Endpoint, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return models.Endpoint{}, fmt.Errorf("invalid address %q: %w", addr, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return models.Endpoint{}, fmt.Errorf("invalid port in address %q", addr)
	}
	if gameID == 0 {
		return models.Endpoint{}, fmt.Errorf("missing game id for %s", addr)
	}

	return r.tag(models.Endpoint{IP: host, Port: port, GameID: gameID}), nil
}

func (r *Resolver) tag(ep models.Endpoint) models.Endpoint {
	if ep.Country == "" {
		ep.Country = r.geo.CountryCode(ep.IP)
	}
	return ep
}

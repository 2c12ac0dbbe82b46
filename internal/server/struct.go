package server

import (
	"context"
	"sync"
	"time"

	"github.com/woozymasta/bfquery/internal/config"
	"github.com/woozymasta/bfquery/internal/models"
	"github.com/woozymasta/bfquery/internal/serverinfo"
	"github.com/woozymasta/bfquery/internal/storage"
)

// Resolver turns a GUID or a direct address into a query endpoint.
// *resolve.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, guid, platform string) (models.Endpoint, error)
	Direct(addr string, gameID uint64) (models.Endpoint, error)
}

// QueryFunc performs one challenge-response query against addr.
type QueryFunc func(ctx context.Context, addr string, gameID uint64, options config.Query) (*serverinfo.ServerInfo, []byte, error)

// Server holds the dependencies, configuration, and runtime state required
// to answer API requests.
type Server struct {
	// resolver maps GUIDs to endpoints, going through the lookup cache.
	resolver Resolver

	// cache is the endpoint cache listed by /api/endpoints and pruned in
	// the background. It can be nil if caching is disabled.
	cache *storage.Repository

	// query runs the UDP handshake; game.QueryServer outside of tests.
	query QueryFunc

	// shutdown is a signal channel used to stop background routines.
	shutdown chan struct{}

	// authToken is the Bearer token required by the API. Empty disables auth.
	authToken string

	// queryOptions holds timeouts used for every UDP query.
	queryOptions config.Query

	// wg waits for background routines during shutdown.
	wg sync.WaitGroup

	// hardLimitCount is the maximum number of requests allowed per IP address
	// within the hardLimitWin duration.
	hardLimitCount int

	// hardLimitWin is the time window duration for the hard rate limiter.
	hardLimitWin time.Duration

	// cacheTTL is the age after which cached endpoints are pruned.
	cacheTTL time.Duration

	// trustProxy indicates whether the server should trust headers like X-Forwarded-For
	// or CF-Connecting-IP when determining the client's real IP address.
	trustProxy bool
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/bfquery/internal/battlelog"
	"github.com/woozymasta/bfquery/internal/models"
	"github.com/woozymasta/bfquery/internal/serverinfo"
	"github.com/woozymasta/bfquery/internal/vars"
)

// handleServer resolves a Battlelog GUID and queries the server behind it.
// Path: /api/servers/{platform}/{guid}
func (s *Server) handleServer(w http.ResponseWriter, r *http.Request) {
	platform := r.PathValue("platform")
	guid := r.PathValue("guid")

	ep, err := s.resolver.Resolve(r.Context(), guid, platform)
	if err != nil {
		log.Warn().Err(err).Str("guid", guid).Str("platform", platform).Msg("Failed to resolve server")
		writeError(w, err)
		return
	}

	s.respondReport(w, r, ep)
}

// handleQuery queries a server by address, skipping the lookup.
// Query params: ?address=1.2.3.4:25200&game_id=291917387
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	addr := r.URL.Query().Get("address")
	gameIDStr := r.URL.Query().Get("game_id")

	if addr == "" || gameIDStr == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing address or game_id"})
		return
	}

	gameID, err := strconv.ParseUint(gameIDStr, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid game_id"})
		return
	}

	ep, err := s.resolver.Direct(addr, gameID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.respondReport(w, r, ep)
}

// handleEndpoints returns every cached endpoint.
func (s *Server) handleEndpoints(w http.ResponseWriter, _ *http.Request) {
	endpoints := []models.Endpoint{}

	if s.cache != nil {
		cached, err := s.cache.ListEndpoints()
		if err != nil {
			log.Error().Err(err).Msg("Failed to list cached endpoints")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "database error"})
			return
		}
		if cached != nil {
			endpoints = cached
		}
	}

	writeJSON(w, http.StatusOK, endpoints)
}

// handleVersion returns the build info.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, vars.Info())
}

func (s *Server) respondReport(w http.ResponseWriter, r *http.Request, ep models.Endpoint) {
	info, raw, err := s.query(r.Context(), ep.Address(), ep.GameID, s.queryOptions)
	if err != nil {
		log.Warn().Err(err).
			Str("address", ep.Address()).
			Uint64("game_id", ep.GameID).
			Int("bytes", len(raw)).
			Msg("Server query failed")

		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.Report{Endpoint: ep, Info: info, QueriedAt: time.Now()})
}

// writeError maps lookup failures to 404, undecodable datagrams to 502 and
// every other query failure to 504.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusGatewayTimeout
	switch {
	case errors.Is(err, battlelog.ErrLookupFailed):
		status = http.StatusNotFound
	case errors.Is(err, serverinfo.ErrMalformed):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

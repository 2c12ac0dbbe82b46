// Package battlelog resolves Battlefield 4 server GUIDs to query endpoints
// through the Battlelog server show JSON API.
package battlelog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/bfquery/internal/models"
)

// DefaultPlatform is used when no platform is given.
const DefaultPlatform = "pc"

// maxBodySize caps the server show document, which embeds the full roster.
const maxBodySize = 4 << 20

var ErrLookupFailed = errors.New("metadata lookup failed")

// LookupError reports why a GUID could not be resolved.
type LookupError struct {
	Err      error
	GUID     string
	Platform string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s/%s: %v", e.Platform, e.GUID, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrLookupFailed) match any *LookupError.
func (e *LookupError) Is(target error) bool {
	return target == ErrLookupFailed
}

// Client queries Battlelog.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
}

// New returns a client for the Battlelog instance at baseURL.
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

// showResponse is the subset of the server show document we rely on.
type showResponse struct {
	Message *struct {
		ServerInfo *serverShow `json:"SERVER_INFO"`
	} `json:"message"`
	Type string `json:"type"`
}

type serverShow struct {
	IP     string      `json:"ip"`
	Name   string      `json:"name"`
	GUID   string      `json:"guid"`
	GameID json.Number `json:"gameId"`
	Port   int         `json:"port"`
}

// Resolve looks up the ip, port and game id of the server with guid.
func (c *Client) Resolve(ctx context.Context, guid, platform string) (models.Endpoint, error) {
	if platform == "" {
		platform = DefaultPlatform
	}
	fail := func(err error) (models.Endpoint, error) {
		return models.Endpoint{}, &LookupError{GUID: guid, Platform: platform, Err: err}
	}

	if guid == "" {
		return fail(errors.New("empty server guid"))
	}

	endpoint := fmt.Sprintf("%s/bf4/servers/show/%s/%s/SERVER/?json=1",
		c.baseURL, url.PathEscape(platform), url.PathEscape(guid))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fail(err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fail(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var show showResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&show); err != nil {
		return fail(fmt.Errorf("decode response: %w", err))
	}

	ep, err := show.endpoint()
	if err != nil {
		return fail(err)
	}
	if ep.GUID == "" {
		ep.GUID = guid
	}
	ep.Platform = platform
	ep.ResolvedAt = time.Now()

	log.Debug().
		Str("guid", guid).
		Str("address", ep.Address()).
		Uint64("game_id", ep.GameID).
		Dur("duration", time.Since(start)).
		Msg("Server resolved")

	return ep, nil
}

// endpoint validates the document and converts it to an Endpoint.
func (s showResponse) endpoint() (models.Endpoint, error) {
	if s.Type == "" {
		return models.Endpoint{}, errors.New("response has no type")
	}
	if s.Message == nil || s.Message.ServerInfo == nil {
		return models.Endpoint{}, errors.New("response has no SERVER_INFO")
	}

	info := s.Message.ServerInfo
	if info.IP == "" {
		return models.Endpoint{}, errors.New("server has no ip")
	}
	if info.Port < 1 || info.Port > 65535 {
		return models.Endpoint{}, fmt.Errorf("invalid port %d", info.Port)
	}

	gameID, err := strconv.ParseUint(info.GameID.String(), 10, 64)
	if err != nil || gameID == 0 {
		return models.Endpoint{}, fmt.Errorf("invalid game id %q", info.GameID)
	}

	return models.Endpoint{
		GUID:   info.GUID,
		Name:   info.Name,
		IP:     info.IP,
		Port:   info.Port,
		GameID: gameID,
	}, nil
}

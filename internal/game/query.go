// Package game queries Battlefield 4 dedicated servers over UDP using the
// two step challenge handshake.
package game

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/bfquery/internal/config"
	"github.com/woozymasta/bfquery/internal/serverinfo"
)

const (
	challengeBufferSize = 1024
	infoBufferSize      = 4096
)

// Header prefixes both handshake packets.
var Header = [7]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x51, 0x50, 0x5F}

// Client runs the query handshake over a Transport. Queries on one client
// are serialised since the transport allows a single outstanding request.
type Client struct {
	transport Transport
	mu        sync.Mutex
}

// NewClient returns a client using t.
func NewClient(t Transport) *Client {
	return &Client{transport: t}
}

// Query performs the handshake for gameID and decodes the reply.
func (c *Client) Query(ctx context.Context, gameID uint64) (*serverinfo.ServerInfo, error) {
	raw, err := c.QueryRaw(ctx, gameID)
	if err != nil {
		return nil, err
	}

	return serverinfo.Decode(raw)
}

// QueryRaw performs the handshake for gameID and returns the server info
// datagram unmodified.
func (c *Client) QueryRaw(ctx context.Context, gameID uint64) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fail := func(stage string, err error) error {
		return &QueryError{Stage: stage, GameID: gameID, Err: err}
	}

	// Challenge
	if err := ctx.Err(); err != nil {
		return nil, fail("challenge", err)
	}

	probe := BuildPacket(gameID, nil)
	if err := c.transport.Send(probe); err != nil {
		return nil, fail("challenge send", err)
	}
	resp, err := c.transport.Receive(challengeBufferSize)
	if err != nil {
		return nil, fail("challenge receive", err)
	}

	token, err := ExtractChallenge(resp)
	if err != nil {
		return nil, fail("challenge", err)
	}

	log.Trace().
		Uint64("game_id", gameID).
		Hex("challenge", token).
		Msg("Challenge received")

	// Server info
	if err := ctx.Err(); err != nil {
		return nil, fail("info", err)
	}

	if err := c.transport.Send(BuildPacket(gameID, token)); err != nil {
		return nil, fail("info send", err)
	}
	raw, err := c.transport.Receive(infoBufferSize)
	if err != nil {
		return nil, fail("info receive", err)
	}

	log.Trace().
		Uint64("game_id", gameID).
		Int("bytes", len(raw)).
		Msg("Server info received")

	return raw, nil
}

// BuildPacket returns the handshake header, the big-endian game id and the
// challenge token, if any.
func BuildPacket(gameID uint64, challenge []byte) []byte {
	packet := make([]byte, len(Header)+8+len(challenge))
	copy(packet, Header[:])
	binary.BigEndian.PutUint64(packet[len(Header):], gameID)
	copy(packet[len(Header)+8:], challenge)
	return packet
}

// ExtractChallenge returns the token of a challenge reply. Replies longer
// than 4 bytes carry an 8 byte prefix that is stripped, shorter replies are
// the token itself.
func ExtractChallenge(resp []byte) ([]byte, error) {
	if len(resp) <= 4 {
		return resp, nil
	}
	if len(resp) < 8 {
		return nil, ErrShortChallenge
	}

	return resp[8:], nil
}

// QueryServer dials addr, queries gameID once and closes the socket.
func QueryServer(ctx context.Context, addr string, gameID uint64, options config.Query) (*serverinfo.ServerInfo, []byte, error) {
	t, err := Dial(addr, options.Timeout, options.Backoff)
	if err != nil {
		return nil, nil, &QueryError{Stage: "dial", GameID: gameID, Err: err}
	}
	defer func() { _ = t.Close() }()

	raw, err := NewClient(t).QueryRaw(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}

	info, err := serverinfo.Decode(raw)
	return info, raw, err
}

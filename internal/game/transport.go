package game

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Transport is a connected datagram endpoint allowing one outstanding
// request at a time.
type Transport interface {
	Send(packet []byte) error
	Receive(size int) ([]byte, error)
	Reconnect() error
	Close() error
}

// UDPTransport is a Transport over a dialed UDP socket. Every Send and
// Receive is bounded by Timeout. After any socket error, timeouts included,
// the transport redials on the next Send, waiting Backoff first. The new
// local port drops replies that arrive after their request timed out.
type UDPTransport struct {
	conn *net.UDPConn
	addr string

	Timeout time.Duration
	Backoff time.Duration

	mu     sync.Mutex
	broken bool
	closed bool
}

// Dial connects a UDP transport to addr ("ip:port").
func Dial(addr string, timeout, backoff time.Duration) (*UDPTransport, error) {
	t := &UDPTransport{
		addr:    addr,
		Timeout: timeout,
		Backoff: backoff,
	}

	if err := t.dial(); err != nil {
		return nil, err
	}

	return t, nil
}

// Addr returns the remote address the transport is connected to.
func (t *UDPTransport) Addr() string {
	return t.addr
}

// Send writes one datagram.
func (t *UDPTransport) Send(packet []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrNotConnected
	}

	if t.broken {
		log.Debug().Str("address", t.addr).Dur("backoff", t.Backoff).Msg("Reconnecting query socket")
		time.Sleep(t.Backoff)
		if err := t.redial(); err != nil {
			return err
		}
	}

	if err := t.conn.SetWriteDeadline(time.Now().Add(t.Timeout)); err != nil {
		return t.fail("set deadline", err)
	}
	if _, err := t.conn.Write(packet); err != nil {
		return t.fail("write", err)
	}

	return nil
}

// Receive reads one datagram of at most size bytes.
func (t *UDPTransport) Receive(size int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.broken {
		return nil, ErrNotConnected
	}

	if err := t.conn.SetReadDeadline(time.Now().Add(t.Timeout)); err != nil {
		return nil, t.fail("set deadline", err)
	}

	buf := make([]byte, size)
	n, err := t.conn.Read(buf)
	if err != nil {
		return nil, t.fail("read", err)
	}

	return buf[:n], nil
}

// Reconnect closes the socket and dials the same address again.
func (t *UDPTransport) Reconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrNotConnected
	}

	return t.redial()
}

// Close releases the socket. A closed transport cannot be reused.
func (t *UDPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

func (t *UDPTransport) dial() error {
	udpAddr, err := net.ResolveUDPAddr("udp", t.addr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", t.addr, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.addr, err)
	}

	t.conn = conn
	t.broken = false
	return nil
}

func (t *UDPTransport) redial() error {
	if t.conn != nil {
		_ = t.conn.Close()
	}

	if err := t.dial(); err != nil {
		t.broken = true
		return err
	}

	return nil
}

// fail marks the socket for reconnection and classifies the error. A late
// reply to a timed out request would otherwise be read as the answer to the
// next one.
func (t *UDPTransport) fail(op string, err error) error {
	t.broken = true

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}

	return fmt.Errorf("%s: %w", op, err)
}

package fake

import (
	"errors"
	"net"
	"sync"
	"time"
)

// probeSize is the length of the first handshake packet: header + game id.
const probeSize = 7 + 8

// ChallengeReply wraps token the way a server answers the probe packet.
func ChallengeReply(token []byte) []byte {
	reply := make([]byte, 0, 8+len(token))
	reply = append(reply, Header...)
	reply = append(reply, 0x00)
	return append(reply, token...)
}

// Server is a loopback UDP game server answering the query handshake with
// canned replies.
type Server struct {
	conn *net.UDPConn
	done chan struct{}

	mu        sync.Mutex
	challenge []byte
	info      []byte
	packets   [][]byte
	silent    bool
	delay     time.Duration
}

// NewServer listens on a random loopback port and starts answering.
func NewServer(challenge, info []byte) (*Server, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		return nil, err
	}

	s := &Server{
		conn:      conn,
		done:      make(chan struct{}),
		challenge: challenge,
		info:      info,
	}
	go s.serve()

	return s, nil
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.conn.LocalAddr().String()
}

// SetSilent makes the server swallow packets without replying.
func (s *Server) SetSilent(silent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silent = silent
}

// DelayNext holds back the next reply by d. Later replies go out at once.
func (s *Server) DelayNext(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SetInfo replaces the server info reply.
func (s *Server) SetInfo(info []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = info
}

// Packets returns copies of every packet received so far.
func (s *Server) Packets() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]byte, len(s.packets))
	for i, p := range s.packets {
		out[i] = append([]byte(nil), p...)
	}
	return out
}

// Close stops the server.
func (s *Server) Close() error {
	err := s.conn.Close()
	<-s.done
	return err
}

func (s *Server) serve() {
	defer close(s.done)

	buf := make([]byte, 2048)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		packet := append([]byte(nil), buf[:n]...)

		s.mu.Lock()
		s.packets = append(s.packets, packet)
		silent := s.silent
		reply := s.info
		if n == probeSize {
			reply = s.challenge
		}
		delay := s.delay
		if !silent && reply != nil {
			s.delay = 0
		}
		s.mu.Unlock()

		if silent || reply == nil {
			continue
		}
		if delay > 0 {
			time.AfterFunc(delay, func() { _, _ = s.conn.WriteToUDP(reply, addr) })
			continue
		}
		_, _ = s.conn.WriteToUDP(reply, addr)
	}
}

package monitor

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/woozymasta/bfquery/internal/config"
	"github.com/woozymasta/bfquery/internal/fake"
	"github.com/woozymasta/bfquery/internal/models"
)

var queryOpts = config.Query{Timeout: 2 * time.Second, Backoff: 10 * time.Millisecond}

func startServer(t *testing.T, info []byte) (*fake.Server, models.Endpoint) {
	t.Helper()

	srv, err := fake.NewServer(fake.ChallengeReply([]byte{0xCA, 0xFE}), info)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = srv.Close() })

	host, portStr, _ := net.SplitHostPort(srv.Addr())
	port, _ := strconv.Atoi(portStr)

	return srv, models.Endpoint{Name: "fake", IP: host, Port: port, GameID: 291917387}
}

type stubResolver map[string]models.Endpoint

func (s stubResolver) Resolve(_ context.Context, guid, _ string) (models.Endpoint, error) {
	ep, ok := s[guid]
	if !ok {
		return models.Endpoint{}, errors.New("unknown guid")
	}
	return ep, nil
}

func TestRunOnceText(t *testing.T) {
	_, ep1 := startServer(t, fake.Sample().Bytes())
	_, ep2 := startServer(t, fake.Sample().Bytes())

	var out bytes.Buffer
	r := New(stubResolver{"guid-2": ep2}, queryOpts, config.Monitor{Format: "text", Workers: 2}, &out)

	err := r.Run(context.Background(), []Target{{Direct: &ep1}, {GUID: "guid-2", Platform: "pc"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := strings.Count(out.String(), "General Information"); got != 2 {
		t.Fatalf("printed %d reports, want 2", got)
	}
	if !strings.Contains(out.String(), "CurrentMap: MP_Abandoned") {
		t.Fatalf("output %q", out.String())
	}
}

func TestRunOnceJSON(t *testing.T) {
	_, ep := startServer(t, fake.Sample().Bytes())

	var out bytes.Buffer
	r := New(nil, queryOpts, config.Monitor{Format: "json", Workers: 1}, &out)

	if err := r.Run(context.Background(), []Target{{Direct: &ep}}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), `"currentMap": "MP_Abandoned"`) {
		t.Fatalf("output %q", out.String())
	}
}

func TestRunOnceCapturesFailedDecode(t *testing.T) {
	broken := fake.Sample().Bytes()[:50]
	_, ep := startServer(t, broken)
	dir := t.TempDir()

	var out bytes.Buffer
	r := New(stubResolver{}, queryOpts, config.Monitor{Format: "text", Workers: 4, CaptureDir: dir}, &out)

	err := r.Run(context.Background(), []Target{{Direct: &ep}, {GUID: "missing"}})
	if err == nil || !strings.Contains(err.Error(), "2 of 2") {
		t.Fatalf("want both targets failing, got %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "serverData_error_*.bin"))
	if len(matches) != 1 {
		t.Fatalf("captures %v", matches)
	}
	data, _ := os.ReadFile(matches[0])
	if !bytes.Equal(data, broken) {
		t.Fatal("captured datagram differs from the received one")
	}
}

func TestWatch(t *testing.T) {
	srv, ep := startServer(t, fake.Sample().Bytes())

	var out bytes.Buffer
	r := New(nil, queryOpts, config.Monitor{Format: "text", Watch: true, Interval: 20 * time.Millisecond, Workers: 1}, &out)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	if err := r.Run(ctx, []Target{{Direct: &ep}}); err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) < 2 {
		t.Fatalf("watch printed %d lines: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "fake | Queue:  3 - Players:  2 - Joining:  0") {
		t.Fatalf("summary line %q", lines[0])
	}
	// Two packets per poll, all over one socket.
	if n := len(srv.Packets()); n < 2*len(lines) {
		t.Fatalf("server saw %d packets for %d polls", n, len(lines))
	}
}

func TestCapturer(t *testing.T) {
	if NewCapturer("", true) != nil {
		t.Fatal("capturer without directory")
	}

	var none *Capturer
	if path, err := none.Save([]byte{1}, true); path != "" || err != nil {
		t.Fatalf("nil capturer saved %q, %v", path, err)
	}

	dir := filepath.Join(t.TempDir(), "captures")
	c := NewCapturer(dir, false)

	if path, _ := c.Save([]byte{1, 2, 3}, false); path != "" {
		t.Fatalf("successful datagram captured without capture-all: %s", path)
	}

	first, err := c.Save([]byte{1, 2, 3}, true)
	if err != nil || first == "" {
		t.Fatalf("save: %q, %v", first, err)
	}
	if again, _ := c.Save([]byte{1, 2, 3}, true); again != "" {
		t.Fatalf("duplicate datagram written to %s", again)
	}

	all := NewCapturer(dir, true)
	path, err := all.Save([]byte{4, 5}, false)
	if err != nil || !strings.Contains(filepath.Base(path), "serverData_") || strings.Contains(path, "error") {
		t.Fatalf("capture-all path %q, %v", path, err)
	}
}

package resolve

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/woozymasta/bfquery/internal/models"
	"github.com/woozymasta/bfquery/internal/storage"
)

type countingLookup struct {
	err   error
	calls int
	// upper answers like Battlelog, with the GUID upper cased and the
	// platform filled in.
	upper bool
}

func (l *countingLookup) Resolve(_ context.Context, guid, platform string) (models.Endpoint, error) {
	l.calls++
	if l.err != nil {
		return models.Endpoint{}, l.err
	}
	if l.upper {
		guid = strings.ToUpper(guid)
		if platform == "" {
			platform = "pc"
		}
	}
	return models.Endpoint{
		GUID:       guid,
		Platform:   platform,
		IP:         "185.189.255.6",
		Port:       25200,
		GameID:     291917387,
		ResolvedAt: time.Now(),
	}, nil
}

func TestResolveUsesCache(t *testing.T) {
	cache, err := storage.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	lookup := &countingLookup{}
	r := New(lookup, cache, nil, time.Hour)

	for i := 0; i < 3; i++ {
		ep, err := r.Resolve(context.Background(), "guid", "pc")
		if err != nil {
			t.Fatal(err)
		}
		if ep.Address() != "185.189.255.6:25200" || ep.GameID != 291917387 {
			t.Fatalf("endpoint %+v", ep)
		}
	}

	if lookup.calls != 1 {
		t.Fatalf("lookup called %d times, want 1", lookup.calls)
	}
}

func TestResolveCachesUnderRequestedKey(t *testing.T) {
	cache, err := storage.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	lookup := &countingLookup{upper: true}
	r := New(lookup, cache, nil, time.Hour)

	for _, platform := range []string{"", "", "pc"} {
		ep, err := r.Resolve(context.Background(), "4d0151b3-guid", platform)
		if err != nil {
			t.Fatal(err)
		}
		if ep.GUID != "4d0151b3-guid" || ep.Platform != "pc" {
			t.Fatalf("endpoint %+v", ep)
		}
	}

	if lookup.calls != 1 {
		t.Fatalf("lookup called %d times, want 1", lookup.calls)
	}
}

func TestResolveWithoutCache(t *testing.T) {
	lookup := &countingLookup{}
	r := New(lookup, nil, nil, time.Hour)

	for i := 0; i < 2; i++ {
		if _, err := r.Resolve(context.Background(), "guid", "pc"); err != nil {
			t.Fatal(err)
		}
	}
	if lookup.calls != 2 {
		t.Fatalf("lookup called %d times, want 2", lookup.calls)
	}
}

func TestResolveLookupError(t *testing.T) {
	boom := errors.New("boom")
	r := New(&countingLookup{err: boom}, nil, nil, time.Hour)

	if _, err := r.Resolve(context.Background(), "guid", "pc"); !errors.Is(err, boom) {
		t.Fatalf("want lookup error, got %v", err)
	}
}

func TestDirect(t *testing.T) {
	r := New(nil, nil, nil, 0)

	ep, err := r.Direct("127.0.0.1:25200", 7)
	if err != nil {
		t.Fatal(err)
	}
	if ep.IP != "127.0.0.1" || ep.Port != 25200 || ep.GameID != 7 {
		t.Fatalf("endpoint %+v", ep)
	}

	for _, bad := range []string{"127.0.0.1", "127.0.0.1:0", "127.0.0.1:http"} {
		if _, err := r.Direct(bad, 7); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
	if _, err := r.Direct("127.0.0.1:25200", 0); err == nil {
		t.Error("zero game id accepted")
	}
}

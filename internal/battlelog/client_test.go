package battlelog

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const showDocument = `{
	"type": "success",
	"message": {
		"SERVER_INFO": {
			"guid": "4d0151b3-81ff-4268-b4e8-5e60d5bc8765",
			"name": "Rush Only 24/7",
			"ip": "185.189.255.6",
			"port": 25200,
			"gameId": 291917387,
			"maxPlayers": 64
		}
	}
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "bfquery-test", 2*time.Second)
}

func TestResolve(t *testing.T) {
	var gotPath, gotUA string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotUA = r.UserAgent()

		// Battlelog answers gzip compressed.
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = io.WriteString(gz, showDocument)
		_ = gz.Close()
	})

	ep, err := c.Resolve(context.Background(), "4d0151b3-81ff-4268-b4e8-5e60d5bc8765", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if gotPath != "/bf4/servers/show/pc/4d0151b3-81ff-4268-b4e8-5e60d5bc8765/SERVER/?json=1" {
		t.Errorf("path %q", gotPath)
	}
	if gotUA != "bfquery-test" {
		t.Errorf("user agent %q", gotUA)
	}
	if ep.IP != "185.189.255.6" || ep.Port != 25200 || ep.GameID != 291917387 {
		t.Errorf("endpoint %+v", ep)
	}
	if ep.Platform != "pc" || ep.Name != "Rush Only 24/7" || ep.Address() != "185.189.255.6:25200" {
		t.Errorf("endpoint %+v", ep)
	}
	if ep.ResolvedAt.IsZero() {
		t.Error("ResolvedAt not set")
	}
}

func TestResolveStringGameID(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"type":"success","message":{"SERVER_INFO":{"ip":"1.2.3.4","port":25200,"gameId":"42"}}}`)
	})

	ep, err := c.Resolve(context.Background(), "guid", "ps4")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ep.GameID != 42 || ep.GUID != "guid" || ep.Platform != "ps4" {
		t.Fatalf("endpoint %+v", ep)
	}
}

func TestResolveInvalid(t *testing.T) {
	tests := map[string]struct {
		status int
		body   string
	}{
		"not found":         {http.StatusNotFound, `{}`},
		"not json":          {http.StatusOK, `<html>`},
		"no type":           {http.StatusOK, `{"message":{"SERVER_INFO":{"ip":"1.2.3.4","port":1,"gameId":1}}}`},
		"no server info":    {http.StatusOK, `{"type":"error","message":"SERVER_NOT_FOUND"}`},
		"missing ip":        {http.StatusOK, `{"type":"success","message":{"SERVER_INFO":{"port":25200,"gameId":1}}}`},
		"port out of range": {http.StatusOK, `{"type":"success","message":{"SERVER_INFO":{"ip":"1.2.3.4","port":70000,"gameId":1}}}`},
		"zero game id":      {http.StatusOK, `{"type":"success","message":{"SERVER_INFO":{"ip":"1.2.3.4","port":25200,"gameId":0}}}`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Resolve(context.Background(), "guid", "pc")
			if !errors.Is(err, ErrLookupFailed) {
				t.Fatalf("want ErrLookupFailed, got %v", err)
			}
			var le *LookupError
			if !errors.As(err, &le) || le.GUID != "guid" {
				t.Fatalf("want LookupError for guid, got %#v", err)
			}
		})
	}
}

func TestResolveEmptyGUID(t *testing.T) {
	c := New("http://127.0.0.1:1", "", time.Second)
	if _, err := c.Resolve(context.Background(), "", "pc"); !errors.Is(err, ErrLookupFailed) {
		t.Fatalf("want ErrLookupFailed, got %v", err)
	}
}

package config

import (
	"errors"
	"testing"
	"time"

	"github.com/jessevdk/go-flags"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{"4d0151b3-81ff-4268-b4e8-5e60d5bc8765"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Query.Platform != "pc" || cfg.Query.Timeout != 5*time.Second || cfg.Query.Backoff != time.Second {
		t.Errorf("query defaults %+v", cfg.Query)
	}
	if cfg.Lookup.URL != "https://battlelog.battlefield.com" || cfg.Lookup.CacheTTL != time.Hour {
		t.Errorf("lookup defaults %+v", cfg.Lookup)
	}
	if cfg.Monitor.Format != "text" || cfg.Monitor.Interval != 2*time.Second || cfg.Monitor.Workers != 4 {
		t.Errorf("monitor defaults %+v", cfg.Monitor)
	}
	if cfg.Storage.Path != "bfquery.db" || cfg.GeoIP.Path != "" {
		t.Errorf("storage/geoip defaults %+v %+v", cfg.Storage, cfg.GeoIP)
	}
	if len(cfg.Args.GUIDs) != 1 || cfg.Direct() || cfg.Serving() {
		t.Errorf("mode: guids %v direct %v serving %v", cfg.Args.GUIDs, cfg.Direct(), cfg.Serving())
	}
}

func TestLoadFlagsAndEnv(t *testing.T) {
	t.Setenv("BFQUERY_QUERY_TIMEOUT", "750ms")
	t.Setenv("BFQUERY_LOG_LEVEL", "debug")

	cfg, err := Load([]string{"--query-address", "10.0.0.1:25200", "--query-game-id", "291917387", "-o", "json", "--watch"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !cfg.Direct() || cfg.Query.Address != "10.0.0.1:25200" || cfg.Query.GameID != 291917387 {
		t.Errorf("direct query %+v", cfg.Query)
	}
	if cfg.Query.Timeout != 750*time.Millisecond {
		t.Errorf("timeout from env = %s", cfg.Query.Timeout)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("log level from env = %s", cfg.Logger.Level)
	}
	if cfg.Monitor.Format != "json" || !cfg.Monitor.Watch {
		t.Errorf("monitor %+v", cfg.Monitor)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string][]string{
		"nothing to query":     {},
		"address without game": {"-a", "10.0.0.1:25200"},
		"bad output format":    {"-o", "xml", "guid"},
		"zero workers":         {"--workers", "0", "guid"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(args); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadServeWithoutGUID(t *testing.T) {
	cfg, err := Load([]string{"--api-listen", ":8080"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Serving() {
		t.Fatal("expected serving mode")
	}
}

func TestLoadHelp(t *testing.T) {
	_, err := Load([]string{"--help"})

	var flagsErr *flags.Error
	if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
		t.Fatalf("want help error, got %v", err)
	}
}

// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/bfquery/internal/logger"
	"github.com/woozymasta/bfquery/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Query   Query         `group:"Query Options" namespace:"query" env-namespace:"BFQUERY_QUERY"`
	Lookup  Lookup        `group:"Battlelog Options" namespace:"battlelog" env-namespace:"BFQUERY_BATTLELOG"`
	Storage Storage       `group:"Storage Options" namespace:"db" env-namespace:"BFQUERY_DB"`
	GeoIP   GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"BFQUERY_GEOIP"`
	Monitor Monitor       `group:"Monitor Options" env-namespace:"BFQUERY"`
	Server  Server        `group:"API Server Options" namespace:"api" env-namespace:"BFQUERY_API"`
	Logger  logger.Config `group:"Logger Options" namespace:"log" env-namespace:"BFQUERY_LOG"`

	Args struct {
		GUIDs []string `positional-arg-name:"server-guid" description:"Battlelog server GUIDs to query"`
	} `positional-args:"yes"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Query holds UDP query protocol configuration.
type Query struct {
	// betteralign:ignore

	Address  string        `short:"a" long:"address" env:"ADDRESS" description:"Query ip:port directly, skipping the Battlelog lookup"`
	GameID   uint64        `short:"g" long:"game-id" env:"GAME_ID" description:"Game id to query, required with --query-address"`
	Platform string        `short:"p" long:"platform" env:"PLATFORM" description:"Battlelog platform of the servers" default:"pc"`
	Timeout  time.Duration `long:"timeout" env:"TIMEOUT" description:"Send and receive timeout" default:"5s"`
	Backoff  time.Duration `long:"reconnect-backoff" env:"RECONNECT_BACKOFF" description:"Wait before redialing a broken socket" default:"1s"`
}

// Lookup holds Battlelog metadata lookup configuration.
type Lookup struct {
	// betteralign:ignore

	URL       string        `long:"url" env:"URL" description:"Battlelog base URL" default:"https://battlelog.battlefield.com"`
	UserAgent string        `long:"user-agent" env:"USER_AGENT" description:"User-Agent sent to Battlelog"`
	Timeout   time.Duration `long:"timeout" env:"TIMEOUT" description:"HTTP request timeout" default:"10s"`
	CacheTTL  time.Duration `long:"cache-ttl" env:"CACHE_TTL" description:"How long resolved servers stay cached" default:"1h"`
}

// Storage holds database configuration.
type Storage struct {
	// betteralign:ignore

	Path string `short:"d" long:"path" env:"PATH" description:"Path to SQLite lookup cache, empty disables caching" default:"bfquery.db"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `long:"path" env:"PATH" description:"Path to MMDB file, empty disables country lookup"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// Monitor holds output and watch loop configuration.
type Monitor struct {
	// betteralign:ignore

	Format     string        `short:"o" long:"output" env:"OUTPUT" description:"Output format" choice:"text" choice:"json" default:"text"`
	Watch      bool          `short:"w" long:"watch" env:"WATCH" description:"Keep polling and print player counts"`
	Interval   time.Duration `short:"i" long:"interval" env:"INTERVAL" description:"Watch polling interval" default:"2s"`
	Workers    int           `long:"workers" env:"WORKERS" description:"Servers queried in parallel" default:"4"`
	CaptureDir string        `long:"capture-dir" env:"CAPTURE_DIR" description:"Directory for raw datagrams of failed decodes"`
	CaptureAll bool          `long:"capture-all" env:"CAPTURE_ALL" description:"Capture every datagram, not only failed ones"`
}

// Server holds HTTP API configuration.
type Server struct {
	// betteralign:ignore

	Address        string        `short:"l" long:"listen" env:"LISTEN_ADDRESS" description:"Serve the HTTP API on this address instead of printing"`
	AuthToken      string        `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"Bearer token required by the API, empty disables auth"`
	TrustProxy     bool          `long:"trust-proxy" env:"TRUST_PROXY" description:"Take client IP from CF-Connecting-IP or X-Forwarded-For"`
	HardLimitCount int           `long:"rate-count" env:"RATE_COUNT" description:"Per IP limit: requests count" default:"30"`
	HardLimitWin   time.Duration `long:"rate-window" env:"RATE_WINDOW" description:"Per IP limit: window duration" default:"1m"`
}

// Direct reports whether the server is addressed without a Battlelog lookup.
func (c *Config) Direct() bool {
	return c.Query.Address != ""
}

// Serving reports whether the HTTP API should run.
func (c *Config) Serving() bool {
	return c.Server.Address != ""
}

// Load parses args and the environment into a validated Config.
func Load(args []string) (*Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	parser.NamespaceDelimiter = "-"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if cfg.Version {
		return &cfg, nil
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Direct() && c.Query.GameID == 0:
		return errors.New("`-g, --query-game-id' is required with `-a, --query-address'")
	case !c.Direct() && !c.Serving() && len(c.Args.GUIDs) == 0:
		return errors.New("no server GUID given, pass one or more GUIDs or `-a, --query-address'")
	case c.Query.Timeout <= 0:
		return fmt.Errorf("invalid query timeout %s", c.Query.Timeout)
	case c.Monitor.Workers < 1:
		return fmt.Errorf("invalid workers count %d", c.Monitor.Workers)
	case c.Serving() && (c.Server.HardLimitCount < 1 || c.Server.HardLimitWin <= 0):
		return fmt.Errorf("invalid API rate limit %d per %s", c.Server.HardLimitCount, c.Server.HardLimitWin)
	case c.Monitor.Interval <= 0:
		return fmt.Errorf("invalid watch interval %s", c.Monitor.Interval)
	}

	return nil
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagsErr.Message)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	return cfg
}

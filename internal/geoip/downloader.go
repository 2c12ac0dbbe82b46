// Package geoip handles downloading, updating, and reading MaxMind GeoLite2
// databases used to tag queried servers with their country.
package geoip

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// EnsureDB checks if the GeoIP database exists at the specified path and if it is recent enough.
// If the file is missing or older than maxAge, it downloads a new copy from the provided URL.
func EnsureDB(ctx context.Context, path, url string, maxAge time.Duration) error {
	info, err := os.Stat(path)

	switch {
	case err == nil && time.Since(info.ModTime()) < maxAge:
		log.Debug().Str("path", path).Msg("GeoIP database is up to date")
		return nil
	case err == nil:
		log.Info().Str("path", path).Msg("GeoIP database is outdated, updating...")
	case os.IsNotExist(err):
		log.Info().Str("path", path).Msg("GeoIP database missing, downloading...")
	default:
		return err
	}

	return download(ctx, path, url)
}

// download fetches url into a temporary file next to path and renames it
// into place once complete.
func download(ctx context.Context, path, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	out, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := out.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// Package vars holds build-time variables populated via the linker (ldflags).
package vars

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// License of the project
const License = "MIT"

var (
	// Name of the project
	Name = "bfquery"

	// Version of application (git tag) semver/tag, e.g. v1.2.3
	Version = "dev"

	// Commit is the current git commit, full or short git SHA
	Commit = "unknown"

	// Revision build, count of commits
	Revision = 0

	// BuildTime is the time of start build app, RFC3339 UTC
	BuildTime = time.Unix(0, 0)

	// URL to repository (https)
	URL = "https://github.com/woozymasta/bfquery"

	_revision  string
	_buildTime string
)

// BuildInfo exposes build metadata, e.g. on the API version endpoint.
type BuildInfo struct {
	// betteralign:ignore

	BuildTime time.Time `json:"build_time,omitempty"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	URL       string    `json:"url,omitempty"`
	Revision  int       `json:"revision,omitempty"`
}

func init() {
	if n, err := strconv.Atoi(_revision); err == nil {
		Revision = n
	}

	if _buildTime != "" {
		if t, err := time.Parse(time.RFC3339, _buildTime); err == nil {
			BuildTime = t.UTC()
		}
	}
}

// Print writes the build information to the standard output.
func Print() {
	fmt.Printf(`name:     %s
url:      %s
file:     %s
version:  %s
commit:   %s
revision: %d
built:    %s
license:  %s
`, Name, URL, os.Args[0], Version, CommitShort(), Revision, BuildTime, License)
}

// Info returns the build metadata.
func Info() BuildInfo {
	return BuildInfo{
		Name:      Name,
		Version:   Version,
		Commit:    Commit,
		Revision:  Revision,
		BuildTime: BuildTime,
		URL:       URL,
	}
}

// UserAgent returns the default User-Agent for outgoing HTTP requests.
func UserAgent() string {
	return fmt.Sprintf("Mozilla/5.0 (compatible; %s/%s; +%s)", Name, Version, URL)
}

// CommitShort returns the first 7 characters of the git commit hash.
func CommitShort() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}

	return Commit
}

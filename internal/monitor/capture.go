package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Capturer writes raw server info datagrams to disk for offline analysis.
// Files are named after the xxhash of their content, so a datagram seen
// again is not written twice. A nil Capturer saves nothing.
type Capturer struct {
	seen map[uint64]struct{}
	dir  string
	mu   sync.Mutex
	all  bool
}

// NewCapturer returns a capturer writing into dir, or nil when dir is empty.
// With all set, successfully decoded datagrams are kept as well.
func NewCapturer(dir string, all bool) *Capturer {
	if dir == "" {
		return nil
	}

	return &Capturer{
		dir:  dir,
		all:  all,
		seen: make(map[uint64]struct{}),
	}
}

// Save stores raw if it failed to decode, or always when capturing all.
// It returns the written path, or "" when nothing was written.
func (c *Capturer) Save(raw []byte, failed bool) (string, error) {
	if c == nil || (!failed && !c.all) {
		return "", nil
	}

	hash := xxhash.Sum64(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[hash]; ok {
		return "", nil
	}

	prefix := "serverData"
	if failed {
		prefix = "serverData_error"
	}
	path := filepath.Join(c.dir, fmt.Sprintf("%s_%016x.bin", prefix, hash))

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", err
	}

	c.seen[hash] = struct{}{}
	return path, nil
}

package geoip

import (
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// Provider tags server addresses with their country. Lookups are memoized
// per IP since the same few servers are resolved over and over.
// A nil Provider is valid and resolves nothing.
type Provider struct {
	db *geoip2.Reader

	mu    sync.RWMutex
	known map[string]string
}

// Open loads the MMDB file at path.
func Open(path string) (*Provider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}

	return &Provider{db: db, known: make(map[string]string)}, nil
}

// Close releases the database.
func (p *Provider) Close() error {
	if p == nil {
		return nil
	}
	return p.db.Close()
}

// CountryCode returns the ISO country code (e.g. "DE") of a server IP, or an
// empty string when it cannot be determined.
func (p *Provider) CountryCode(ipStr string) string {
	if p == nil {
		return ""
	}

	p.mu.RLock()
	code, ok := p.known[ipStr]
	p.mu.RUnlock()
	if ok {
		return code
	}

	code = p.lookup(ipStr)

	p.mu.Lock()
	p.known[ipStr] = code
	p.mu.Unlock()

	return code
}

func (p *Provider) lookup(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() {
		return ""
	}

	record, err := p.db.Country(ip)
	if err != nil {
		return ""
	}

	return record.Country.IsoCode
}

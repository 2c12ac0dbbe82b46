// Package models defines the data structures shared between the lookup,
// cache, monitor and API layers.
package models

import (
	"net"
	"strconv"
	"time"

	"github.com/woozymasta/bfquery/internal/serverinfo"
)

// Endpoint is a game server resolved from its Battlelog GUID.
type Endpoint struct {
	ResolvedAt time.Time `json:"resolved_at"`
	GUID       string    `json:"guid"`
	Platform   string    `json:"platform"`
	Name       string    `json:"name,omitempty"`
	IP         string    `json:"ip"`
	Country    string    `json:"country,omitempty"`
	GameID     uint64    `json:"game_id"`
	Port       int       `json:"port"`
}

// Address returns the ip:port pair to send queries to.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.IP, strconv.Itoa(e.Port))
}

// Label returns the most readable identifier of the endpoint.
func (e Endpoint) Label() string {
	switch {
	case e.Name != "":
		return e.Name
	case e.GUID != "":
		return e.GUID
	default:
		return e.Address()
	}
}

// Report is one query result together with the endpoint it came from.
type Report struct {
	QueriedAt time.Time              `json:"queried_at"`
	Info      *serverinfo.ServerInfo `json:"info"`
	Endpoint  Endpoint               `json:"endpoint"`
}

// Package serverinfo decodes the Battlefield 4 server info datagram into a
// ServerInfo snapshot.
package serverinfo

// QueueTeam is the roster index of players waiting to join.
const QueueTeam = 0

// ServerInfo is one decoded query result. Values are built by Decode and
// never modified afterwards.
type ServerInfo struct {
	// betteralign:ignore

	GameID                     uint64     `json:"gameId"`
	GameMode                   string     `json:"gameMode"`
	MapVariant                 uint8      `json:"mapVariant"`
	CurrentMap                 string     `json:"currentMap"`
	RoundTime                  uint32     `json:"roundTime"`
	DefaultRoundTimeMultiplier uint32     `json:"defaultRoundTimeMultiplier"`
	MaxPlayers                 uint8      `json:"maxPlayers"`
	WaitingPlayers             uint8      `json:"waitingPlayers"`
	RoundState                 RoundState `json:"roundState,omitempty"`

	// Teams is indexed by team number, Teams[0] is the join queue.
	Teams []TeamInfo `json:"teams"`
}

// TeamInfo is a single roster entry.
type TeamInfo struct {
	Index   uint8          `json:"index"`
	Players []PlayerRecord `json:"players"`

	byPersona map[uint64]int
}

// PlayerRecord is one player as reported by the server.
type PlayerRecord struct {
	PersonaID uint64 `json:"personaId"`
	Tag       string `json:"tag"`
	Name      string `json:"name"`
	Rank      uint8  `json:"rank"`
	Score     int32  `json:"score"`
	Kills     uint16 `json:"kills"`
	Deaths    uint16 `json:"deaths"`
	SquadID   uint8  `json:"squadId"`
	Role      uint8  `json:"role"`
}

// IsQueue reports whether the team is the join queue pseudo-team.
func (t TeamInfo) IsQueue() bool {
	return t.Index == QueueTeam
}

// Player looks up a player of the team by persona id.
func (t TeamInfo) Player(personaID uint64) (PlayerRecord, bool) {
	i, ok := t.byPersona[personaID]
	if !ok {
		return PlayerRecord{}, false
	}
	return t.Players[i], true
}

// Team returns the roster entry with the given index.
func (s *ServerInfo) Team(index int) (TeamInfo, bool) {
	if index < 0 || index >= len(s.Teams) {
		return TeamInfo{}, false
	}
	return s.Teams[index], true
}

// JoiningPlayers returns the number of players in the join queue, or -1 when
// the roster has no queue entry.
func (s *ServerInfo) JoiningPlayers() int {
	queue, ok := s.Team(QueueTeam)
	if !ok {
		return -1
	}
	return len(queue.Players)
}

// TotalPlayers returns the number of players across all teams, queue included.
func (s *ServerInfo) TotalPlayers() int {
	total := 0
	for _, team := range s.Teams {
		total += len(team.Players)
	}
	return total
}

package serverinfo

import (
	"github.com/woozymasta/bfquery/internal/wire"
)

// decodeTeams reads count consecutive team entries, the first being the
// join queue. Each entry is a player count byte followed by that many
// player records.
func decodeTeams(c *wire.Cursor, count int) ([]TeamInfo, error) {
	teams := make([]TeamInfo, 0, count)

	for i := 0; i < count; i++ {
		team, err := decodeTeam(c, uint8(i))
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}

	return teams, nil
}

func decodeTeam(c *wire.Cursor, index uint8) (TeamInfo, error) {
	d := decoder{c: c}

	var playerCount uint8
	d.u8("team.playerCount", &playerCount)
	if d.err != nil {
		return TeamInfo{}, d.err
	}

	team := TeamInfo{
		Index:     index,
		Players:   make([]PlayerRecord, 0, playerCount),
		byPersona: make(map[uint64]int, playerCount),
	}

	for i := 0; i < int(playerCount); i++ {
		start := c.Pos()

		p, err := decodePlayer(c)
		if err != nil {
			return TeamInfo{}, err
		}

		if _, dup := team.byPersona[p.PersonaID]; dup {
			return TeamInfo{}, &DecodeError{
				Field:  "player.personaId",
				Offset: start,
				Err:    &DuplicatePlayerError{PersonaID: p.PersonaID, Team: index},
			}
		}

		team.byPersona[p.PersonaID] = len(team.Players)
		team.Players = append(team.Players, p)
	}

	return team, nil
}

// decodePlayer reads one player record in wire order.
func decodePlayer(c *wire.Cursor) (PlayerRecord, error) {
	d := decoder{c: c}
	var p PlayerRecord

	d.u64("player.personaId", &p.PersonaID)
	d.str("player.tag", &p.Tag)
	d.str("player.name", &p.Name)
	d.u8("player.rank", &p.Rank)
	d.i32("player.score", &p.Score)
	d.u16("player.kills", &p.Kills)
	d.u16("player.deaths", &p.Deaths)
	d.u8("player.squadId", &p.SquadID)
	d.u8("player.role", &p.Role)

	return p, d.err
}

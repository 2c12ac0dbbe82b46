package fake

import (
	"fmt"
	"math/rand"
)

// Random builds a plausible populated server datagram from r. Persona ids
// are unique across the whole roster.
func Random(r *rand.Rand) Datagram {
	modes := []string{"ConquestLarge0", "RushLarge0", "RushLarge", "SquadDeathMatch0", "Domination0"}
	maps := []string{"MP_Abandoned", "MP_Damage", "MP_Flooded", "MP_Journey", "MP_Naval", "MP_Prison", "MP_Resort", "MP_Siege", "MP_TheDish", "MP_Tremors", "XP1_001"}
	tags := []string{"", "", "LOL", "BF4", "RU", "DICE", "xX"}

	d := Datagram{
		GameID:                     uint64(r.Int63()),
		GameMode:                   modes[r.Intn(len(modes))],
		MapVariant:                 uint8(r.Intn(3)),
		CurrentMap:                 maps[r.Intn(len(maps))],
		RoundTime:                  uint32(r.Intn(3600)),
		DefaultRoundTimeMultiplier: 100,
		MaxPlayers:                 64,
		WaitingPlayers:             uint8(r.Intn(10)),
	}

	switch d.GameMode {
	case "RushLarge":
		maxTickets := uint16(75 + r.Intn(100))
		d.RoundState = RushState(uint16(r.Intn(int(maxTickets))), maxTickets, uint8(r.Intn(4)), 4, uint8(r.Intn(8)), 0)
	default:
		// Unknown modes still carry an opaque block of some size.
		d.RoundState = make([]byte, r.Intn(16))
		_, _ = r.Read(d.RoundState)
	}

	teams := 2 + r.Intn(3)
	d.Teams = make([][]Player, teams+1)
	persona := uint64(100000000 + r.Intn(100000000))

	for t := range d.Teams {
		n := r.Intn(16)
		if t == 0 {
			n = r.Intn(4)
		}
		for i := 0; i < n; i++ {
			persona++
			d.Teams[t] = append(d.Teams[t], Player{
				PersonaID: persona,
				Tag:       tags[r.Intn(len(tags))],
				Name:      fmt.Sprintf("Soldier%d", r.Intn(100000)),
				Rank:      uint8(r.Intn(141)),
				Score:     int32(r.Intn(20000) - 100),
				Kills:     uint16(r.Intn(80)),
				Deaths:    uint16(r.Intn(80)),
				SquadID:   uint8(r.Intn(9)),
				Role:      uint8(r.Intn(3)),
			})
		}
	}

	return d
}

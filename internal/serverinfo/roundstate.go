package serverinfo

import (
	"sync"

	"github.com/woozymasta/bfquery/internal/wire"
)

// ModeRushLarge is the game mode identifier of conquest-sized Rush.
const ModeRushLarge = "RushLarge"

// RoundState is the decoded mode specific round status block.
type RoundState interface {
	Mode() string
}

// RoundStateDecoder decodes the round state block of one game mode. Decode
// receives a cursor bounded to exactly Size bytes.
type RoundStateDecoder struct {
	Decode func(block *wire.Cursor) (RoundState, error)
	Size   int
}

var (
	roundStatesMu sync.RWMutex
	roundStates   = map[string]RoundStateDecoder{
		ModeRushLarge: {Size: rushBlockSize, Decode: decodeRush},
	}
)

// RegisterRoundState adds or replaces the decoder used for a game mode.
func RegisterRoundState(mode string, d RoundStateDecoder) {
	roundStatesMu.Lock()
	defer roundStatesMu.Unlock()
	roundStates[mode] = d
}

func lookupRoundState(mode string) (RoundStateDecoder, bool) {
	roundStatesMu.RLock()
	defer roundStatesMu.RUnlock()
	d, ok := roundStates[mode]
	return d, ok
}

const rushBlockSize = 8

// Rush is the round state of large Rush: attacker tickets and the progress
// through the map stages.
type Rush struct {
	Tickets             uint16 `json:"tickets"`
	MaxTickets          uint16 `json:"maxTickets"`
	Stage               uint8  `json:"stage"`
	MaxStages           uint8  `json:"maxStages"`
	ObjectivesDestroyed uint8  `json:"objectivesDestroyed"`
	Flags               uint8  `json:"flags"`
}

func (r *Rush) Mode() string {
	return ModeRushLarge
}

func decodeRush(block *wire.Cursor) (RoundState, error) {
	d := decoder{c: block}
	r := &Rush{}

	d.u16("tickets", &r.Tickets)
	d.u16("maxTickets", &r.MaxTickets)
	d.u8("stage", &r.Stage)
	d.u8("maxStages", &r.MaxStages)
	d.u8("objectivesDestroyed", &r.ObjectivesDestroyed)
	d.u8("flags", &r.Flags)
	if d.err != nil {
		return nil, d.err
	}

	return r, nil
}

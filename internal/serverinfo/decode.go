package serverinfo

import (
	"errors"

	"github.com/woozymasta/bfquery/internal/wire"
)

// InfoOffset is where the decoded section of the datagram starts.
// The header in front of it is not interpreted.
const InfoOffset = 0x13

// Decode parses a raw server info datagram. It returns either a complete
// ServerInfo or a *DecodeError; partial results are never returned.
func Decode(buf []byte) (*ServerInfo, error) {
	c := wire.New(buf)
	d := decoder{c: c}

	if err := c.Seek(InfoOffset); err != nil {
		return nil, &DecodeError{Field: "header", Offset: InfoOffset, Err: err}
	}

	info := &ServerInfo{}
	d.u64("gameId", &info.GameID)
	d.str("gameMode", &info.GameMode)
	d.u8("mapVariant", &info.MapVariant)

	var blockSize uint8
	d.u8("roundStateSize", &blockSize)
	if d.err != nil {
		return nil, d.err
	}

	state, err := decodeRoundState(c, info.GameMode, int(blockSize))
	if err != nil {
		return nil, err
	}
	info.RoundState = state

	d.str("currentMap", &info.CurrentMap)
	d.u32("roundTime", &info.RoundTime)
	d.u32("defaultRoundTimeMultiplier", &info.DefaultRoundTimeMultiplier)
	d.u8("maxPlayers", &info.MaxPlayers)
	d.u8("waitingPlayers", &info.WaitingPlayers)

	var teamCount uint8
	d.u8("teamCount", &teamCount)
	if d.err != nil {
		return nil, d.err
	}

	teams, err := decodeTeams(c, int(teamCount)+1)
	if err != nil {
		return nil, err
	}
	info.Teams = teams

	return info, nil
}

// decodeRoundState decodes the mode specific block starting at the cursor
// and always leaves the cursor right after the declared block, whether or
// not a decoder understood it.
func decodeRoundState(c *wire.Cursor, mode string, size int) (RoundState, error) {
	start := c.Pos()

	var state RoundState
	if rd, ok := lookupRoundState(mode); ok && rd.Size == size {
		block, err := c.Window(size)
		if err != nil {
			return nil, &DecodeError{Field: "roundState", Offset: start, Err: err}
		}
		state, err = rd.Decode(block)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				return nil, err
			}
			return nil, &DecodeError{Field: "roundState." + mode, Offset: block.Pos(), Err: err}
		}
	}

	if err := c.AdvanceTo(start + size); err != nil {
		return nil, &DecodeError{Field: "roundState", Offset: start, Err: err}
	}

	return state, nil
}

// decoder chains field reads and keeps the first failure.
type decoder struct {
	c   *wire.Cursor
	err error
}

func (d *decoder) fail(field string, offset int, err error) {
	d.err = &DecodeError{Field: field, Offset: offset, Err: err}
}

func (d *decoder) u8(field string, v *uint8) {
	if d.err != nil {
		return
	}
	off := d.c.Pos()
	x, err := d.c.U8()
	if err != nil {
		d.fail(field, off, err)
		return
	}
	*v = x
}

func (d *decoder) u16(field string, v *uint16) {
	if d.err != nil {
		return
	}
	off := d.c.Pos()
	x, err := d.c.U16()
	if err != nil {
		d.fail(field, off, err)
		return
	}
	*v = x
}

func (d *decoder) u32(field string, v *uint32) {
	if d.err != nil {
		return
	}
	off := d.c.Pos()
	x, err := d.c.U32()
	if err != nil {
		d.fail(field, off, err)
		return
	}
	*v = x
}

func (d *decoder) i32(field string, v *int32) {
	if d.err != nil {
		return
	}
	off := d.c.Pos()
	x, err := d.c.I32()
	if err != nil {
		d.fail(field, off, err)
		return
	}
	*v = x
}

func (d *decoder) u64(field string, v *uint64) {
	if d.err != nil {
		return
	}
	off := d.c.Pos()
	x, err := d.c.U64()
	if err != nil {
		d.fail(field, off, err)
		return
	}
	*v = x
}

func (d *decoder) str(field string, v *string) {
	if d.err != nil {
		return
	}
	off := d.c.Pos()
	x, err := d.c.String()
	if err != nil {
		d.fail(field, off, err)
		return
	}
	*v = x
}

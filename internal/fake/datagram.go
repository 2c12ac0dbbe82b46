// Package fake builds synthetic server info datagrams and runs a loopback
// game server speaking the query handshake, for tests and local development.
package fake

import (
	"bytes"
	"encoding/binary"
)

// Header is the query packet prefix, also echoed at the start of replies.
var Header = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x51, 0x50, 0x5F}

// Player is a roster entry to encode.
type Player struct {
	PersonaID uint64
	Tag       string
	Name      string
	Rank      uint8
	Score     int32
	Kills     uint16
	Deaths    uint16
	SquadID   uint8
	Role      uint8
}

// Datagram describes a server info reply. Teams[0] is the join queue and
// the declared team count is len(Teams)-1.
type Datagram struct {
	GameMode   string
	CurrentMap string
	RoundState []byte
	Teams      [][]Player

	GameID                     uint64
	RoundTime                  uint32
	DefaultRoundTimeMultiplier uint32
	MapVariant                 uint8
	MaxPlayers                 uint8
	WaitingPlayers             uint8
}

// Bytes encodes the datagram in wire format.
func (d Datagram) Bytes() []byte {
	var b bytes.Buffer

	b.Write(Header)
	b.Write(make([]byte, 0x13-len(Header)))

	putU64(&b, d.GameID)
	putString(&b, d.GameMode)
	b.WriteByte(d.MapVariant)
	b.WriteByte(byte(len(d.RoundState)))
	b.Write(d.RoundState)

	putString(&b, d.CurrentMap)
	putU32(&b, d.RoundTime)
	putU32(&b, d.DefaultRoundTimeMultiplier)
	b.WriteByte(d.MaxPlayers)
	b.WriteByte(d.WaitingPlayers)

	teamCount := len(d.Teams) - 1
	if teamCount < 0 {
		teamCount = 0
	}
	b.WriteByte(byte(teamCount))

	for i := 0; i <= teamCount; i++ {
		var players []Player
		if i < len(d.Teams) {
			players = d.Teams[i]
		}

		b.WriteByte(byte(len(players)))
		for _, p := range players {
			putU64(&b, p.PersonaID)
			putString(&b, p.Tag)
			putString(&b, p.Name)
			b.WriteByte(p.Rank)
			putU32(&b, uint32(p.Score))
			putU16(&b, p.Kills)
			putU16(&b, p.Deaths)
			b.WriteByte(p.SquadID)
			b.WriteByte(p.Role)
		}
	}

	return b.Bytes()
}

// RushState encodes a large Rush round state block.
func RushState(tickets, maxTickets uint16, stage, maxStages, destroyed, flags uint8) []byte {
	var b bytes.Buffer
	putU16(&b, tickets)
	putU16(&b, maxTickets)
	b.Write([]byte{stage, maxStages, destroyed, flags})
	return b.Bytes()
}

// Sample returns the reference datagram: large Rush on Operation Abandoned
// with two players on real teams and an empty queue.
func Sample() Datagram {
	return Datagram{
		GameID:                     291917387,
		GameMode:                   "RushLarge",
		MapVariant:                 0,
		RoundState:                 RushState(75, 100, 2, 4, 3, 0),
		CurrentMap:                 "MP_Abandoned",
		RoundTime:                  1512,
		DefaultRoundTimeMultiplier: 100,
		MaxPlayers:                 64,
		WaitingPlayers:             3,
		Teams: [][]Player{
			{},
			{{PersonaID: 1000001, Tag: "ABC", Name: "Attacker", Rank: 140, Score: 12450, Kills: 31, Deaths: 9, SquadID: 1, Role: 0}},
			{{PersonaID: 1000002, Tag: "", Name: "Defender", Rank: 12, Score: -20, Kills: 0, Deaths: 14, SquadID: 0, Role: 1}},
		},
	}
}

func putU16(b *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.Write(tmp[:])
}

func putU32(b *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.Write(tmp[:])
}

func putU64(b *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.Write(tmp[:])
}

func putString(b *bytes.Buffer, s string) {
	if len(s) > 255 {
		s = s[:255]
	}
	b.WriteByte(byte(len(s)))
	b.WriteString(s)
}

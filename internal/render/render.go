// Package render formats query reports for terminals and machines.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/woozymasta/bfquery/internal/models"
	"github.com/woozymasta/bfquery/internal/serverinfo"
)

const width = 110

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Summary is the one line status printed by the watch loop.
func Summary(r models.Report) string {
	return fmt.Sprintf("%s | %s | Queue: %2d - Players: %2d - Joining: %2d",
		r.QueriedAt.Format(time.TimeOnly), r.Endpoint.Label(),
		r.Info.WaitingPlayers, r.Info.TotalPlayers(), r.Info.JoiningPlayers())
}

// Text writes the full report: general information, round state and one
// roster table per team.
func Text(w io.Writer, r models.Report) error {
	var b strings.Builder
	info := r.Info

	banner(&b, "General Information")
	if r.Endpoint.Name != "" {
		fmt.Fprintf(&b, "Server: %s\n", r.Endpoint.Name)
	}
	if r.Endpoint.IP != "" {
		fmt.Fprintf(&b, "Address: %s\n", r.Endpoint.Address())
	}
	if r.Endpoint.Country != "" {
		fmt.Fprintf(&b, "Country: %s\n", r.Endpoint.Country)
	}
	fmt.Fprintf(&b, "CurrentMap: %s\n", info.CurrentMap)
	fmt.Fprintf(&b, "DefaultRoundTimeMultiplier: %d\n", info.DefaultRoundTimeMultiplier)
	fmt.Fprintf(&b, "GameId: %d\n", info.GameID)
	fmt.Fprintf(&b, "GameMode: %s\n", info.GameMode)
	fmt.Fprintf(&b, "MapVariant: %d\n", info.MapVariant)
	fmt.Fprintf(&b, "MaxPlayers: %d\n", info.MaxPlayers)
	fmt.Fprintf(&b, "WaitingPlayers: %d\n", info.WaitingPlayers)
	fmt.Fprintf(&b, "RoundTime: %d\n", info.RoundTime)
	fmt.Fprintf(&b, "Players: %d (joining %d)\n", info.TotalPlayers(), info.JoiningPlayers())
	b.WriteString("\n")

	if rush, ok := info.RoundState.(*serverinfo.Rush); ok {
		banner(&b, "Rush Information")
		fmt.Fprintf(&b, "Tickets: %d/%d\n", rush.Tickets, rush.MaxTickets)
		fmt.Fprintf(&b, "Stage: %d/%d\n", rush.Stage, rush.MaxStages)
		fmt.Fprintf(&b, "ObjectivesDestroyed: %d\n", rush.ObjectivesDestroyed)
		fmt.Fprintf(&b, "Flags: 0x%02X\n", rush.Flags)
		b.WriteString("\n")
	}

	for _, team := range info.Teams {
		title := fmt.Sprintf("Team %d Information", team.Index)
		if team.IsQueue() {
			title = "Team 0 Information (joining)"
		}
		banner(&b, title)
		roster(&b, team)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func banner(b *strings.Builder, title string) {
	line := strings.Repeat("#", width)
	inner := width - 2
	pad := (inner - len(title)) / 2

	b.WriteString(line + "\n")
	fmt.Fprintf(b, "#%s%s%s#\n", strings.Repeat(" ", pad), title, strings.Repeat(" ", inner-pad-len(title)))
	b.WriteString(line + "\n")
}

func roster(b *strings.Builder, team serverinfo.TeamInfo) {
	fmt.Fprintf(b, "| %13s | %4s | %30s | %4s | %10s | %5s | %6s | %7s | %4s |\n",
		"PersonaId", "Tag", "Name", "Rank", "Score", "Kills", "Deaths", "SquadId", "Role")
	b.WriteString("|---------------|------|--------------------------------|------|------------|-------|--------|---------|------|\n")

	for _, p := range team.Players {
		fmt.Fprintf(b, "| %13d | %4s | %30s | %4d | %10d | %5d | %6d | %7d | %4d |\n",
			p.PersonaID, p.Tag, p.Name, p.Rank, p.Score, p.Kills, p.Deaths, p.SquadID, p.Role)
	}

	b.WriteString("|_______________|______|________________________________|______|____________|_______|________|_________|______|\n")
}

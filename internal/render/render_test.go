package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/woozymasta/bfquery/internal/fake"
	"github.com/woozymasta/bfquery/internal/models"
	"github.com/woozymasta/bfquery/internal/serverinfo"
)

func sampleReport(t *testing.T) models.Report {
	t.Helper()

	info, err := serverinfo.Decode(fake.Sample().Bytes())
	if err != nil {
		t.Fatal(err)
	}

	return models.Report{
		QueriedAt: time.Date(2026, 10, 17, 21, 4, 5, 0, time.UTC),
		Info:      info,
		Endpoint:  models.Endpoint{Name: "Rush Only 24/7", IP: "185.189.255.6", Port: 25200, Country: "DE"},
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, sampleReport(t)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"General Information",
		"Server: Rush Only 24/7",
		"Address: 185.189.255.6:25200",
		"Country: DE",
		"CurrentMap: MP_Abandoned",
		"GameMode: RushLarge",
		"MaxPlayers: 64",
		"Players: 2 (joining 0)",
		"Rush Information",
		"Tickets: 75/100",
		"Stage: 2/4",
		"ObjectivesDestroyed: 3",
		"Flags: 0x00",
		"Team 0 Information (joining)",
		"Team 1 Information",
		"Team 2 Information",
		"Attacker",
		"Defender",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}

	for i, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasPrefix(line, "#") && len(line) != width {
			t.Errorf("banner line %d has width %d: %q", i, len(line), line)
		}
	}
}

func TestTextWithoutRoundState(t *testing.T) {
	r := sampleReport(t)
	r.Info.RoundState = nil

	var buf bytes.Buffer
	if err := Text(&buf, r); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Rush Information") {
		t.Fatal("rush block rendered without round state")
	}
}

func TestSummary(t *testing.T) {
	got := Summary(sampleReport(t))
	want := "21:04:05 | Rush Only 24/7 | Queue:  3 - Players:  2 - Joining:  0"
	if got != want {
		t.Fatalf("summary\n got %q\nwant %q", got, want)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleReport(t)); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Info struct {
			CurrentMap string `json:"currentMap"`
			RoundState struct {
				Tickets int `json:"tickets"`
			} `json:"roundState"`
			Teams []struct {
				Players []struct {
					Name string `json:"name"`
				} `json:"players"`
			} `json:"teams"`
		} `json:"info"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Info.CurrentMap != "MP_Abandoned" || doc.Info.RoundState.Tickets != 75 || len(doc.Info.Teams) != 3 {
		t.Fatalf("json %+v", doc)
	}
	if doc.Info.Teams[1].Players[0].Name != "Attacker" {
		t.Fatalf("players %+v", doc.Info.Teams[1].Players)
	}
}

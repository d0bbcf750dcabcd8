package telegram

import (
	"strings"
	"testing"
	"time"

	"binome_rotation_bot/internal/app"
	"binome_rotation_bot/internal/domain/pairing"
	"binome_rotation_bot/internal/domain/section"

	"github.com/stretchr/testify/require"
)

func pct(v float64) *float64 { return &v }

func sampleReport() *app.Report {
	started := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	return &app.Report{
		Cycle:          &pairing.Cycle{ID: 12, SectionID: 3, StartedAt: started, IsActive: true},
		NextRotationAt: started.AddDate(0, 3, 0),
		Period: app.Period{
			From: time.Date(2026, time.July, 16, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC),
		},
		Pairs: []app.ReportPair{
			{
				PairID: 1, AgeBracketID: 1, BracketName: "S1", Gender: "M",
				Members: []app.ReportMember{{ID: 1, Name: "Paul Martin"}, {ID: 4, Name: "Hugo"}, {ID: 5, Name: "Léo"}},
				IsTrio:  true,
				Stats:   app.JointStats{TotalMeetings: 10, PresentAll: 3, Percent: pct(30)},
			},
			{
				PairID: 2, AgeBracketID: 1, BracketName: "S1", Gender: "M",
				Members: []app.ReportMember{{ID: 2, Name: "Noé"}, {ID: 3}},
				Stats:   app.JointStats{TotalMeetings: 10, PresentAll: 2, Percent: pct(20)},
			},
		},
		Singles: []app.ReportSingle{
			{
				Member: app.ReportMember{ID: 9, Name: "Inès"}, AgeBracketID: 2, BracketName: "S2", Gender: "F",
				Label: app.SoloLabel, Stats: app.JointStats{TotalMeetings: 10, PresentAll: 7, Percent: pct(70)},
			},
		},
	}
}

func TestFormatCurrent(t *testing.T) {
	sec := &section.Section{ID: 3, Name: "Judo"}

	t.Run("active cycle", func(t *testing.T) {
		text := FormatCurrent(sec, sampleReport())

		require.Contains(t, text, "Binômes de la section Judo")
		require.Contains(t, text, "Cycle #12 commencé le 01/09/2026, prochaine rotation le 01/12/2026")
		require.Contains(t, text, "\nS1 M\n")
		require.Contains(t, text, "  • Paul Martin / Hugo / Léo (trio)\n")
		require.Contains(t, text, "  • Noé / #3\n")
		require.Contains(t, text, "  • Inès (S2 F)\n")
		require.NotContains(t, text, "%")
		require.Equal(t, 1, strings.Count(text, "S1 M\n"))
	})

	t.Run("no cycle", func(t *testing.T) {
		text := FormatCurrent(sec, &app.Report{})
		require.Contains(t, text, "Aucun cycle actif pour la section Judo")
		require.Contains(t, text, "/generate 3")
	})
}

func TestFormatReport(t *testing.T) {
	sec := &section.Section{ID: 3, Name: "Judo"}
	r := sampleReport()
	r.Pairs[1].Stats = app.JointStats{}

	text := FormatReport(sec, r)

	require.Contains(t, text, "Présences du 16/07/2026 au 14/10/2026")
	require.Contains(t, text, "  • Paul Martin / Hugo / Léo (trio) : 3/10 (30.0%)\n")
	require.Contains(t, text, "  • Noé / #3 : aucune séance\n")
	require.Contains(t, text, "  • Inès (S2 F) : 7/10 (70.0%)\n")
}

func TestFormatStatus(t *testing.T) {
	sec := &section.Section{ID: 3, Name: "Judo"}
	started := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)

	text := FormatStatus(sec, &app.CycleStatus{ID: 12, StartedAt: started, NextRotationAt: started.AddDate(0, 3, 0)})
	require.Equal(t, "Section Judo : cycle #12 actif depuis le 01/09/2026.\nProchaine rotation le 01/12/2026.", text)

	require.Contains(t, FormatStatus(sec, nil), "Aucun cycle actif")
}

func TestFormatSections(t *testing.T) {
	require.Equal(t, "Aucune section enregistrée.", FormatSections(nil))
	require.Equal(t, "Sections :\n  • 1 : Judo\n  • 2 : Escrime\n",
		FormatSections([]*section.Section{{ID: 1, Name: "Judo"}, {ID: 2, Name: "Escrime"}}))
}

func TestBucketLabel(t *testing.T) {
	require.Equal(t, "S2 F", bucketLabel("S2", 2, "F"))
	require.Equal(t, "tranche #7 M", bucketLabel("", 7, "M"))
}

// internal/infra/telegram/format.go
package telegram

import (
	"fmt"
	"strings"

	"binome_rotation_bot/internal/app"
	"binome_rotation_bot/internal/domain/section"
)

const dateLayout = "02/01/2006"

func bucketLabel(bracketName string, bracketID int64, gender string) string {
	if bracketName == "" {
		bracketName = fmt.Sprintf("tranche #%d", bracketID)
	}
	return fmt.Sprintf("%s %s", bracketName, gender)
}

func memberNames(members []app.ReportMember) string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		if m.Name == "" {
			names = append(names, fmt.Sprintf("#%d", m.ID))
			continue
		}
		names = append(names, m.Name)
	}
	return strings.Join(names, " / ")
}

func formatJoint(s app.JointStats) string {
	if s.Percent == nil {
		return "aucune séance"
	}
	return fmt.Sprintf("%d/%d (%.1f%%)", s.PresentAll, s.TotalMeetings, *s.Percent)
}

func noCycleText(sec *section.Section) string {
	return fmt.Sprintf("Aucun cycle actif pour la section %s. Un administrateur peut lancer /generate %d.", sec.Name, sec.ID)
}

func writeCycleHeader(b *strings.Builder, sec *section.Section, r *app.Report) {
	fmt.Fprintf(b, "Binômes de la section %s\n", sec.Name)
	fmt.Fprintf(b, "Cycle #%d commencé le %s, prochaine rotation le %s\n",
		r.Cycle.ID, r.Cycle.StartedAt.Format(dateLayout), r.NextRotationAt.Format(dateLayout))
}

// FormatCurrent renders the pairs of the active cycle.
func FormatCurrent(sec *section.Section, r *app.Report) string {
	if r.Cycle == nil {
		return noCycleText(sec)
	}

	var b strings.Builder
	writeCycleHeader(&b, sec, r)
	if len(r.Pairs) == 0 {
		b.WriteString("\nAucun binôme dans ce cycle.\n")
	}
	writePairs(&b, r, false)
	writeSingles(&b, r, false)
	return b.String()
}

// FormatReport renders the pairs of the active cycle with joint attendance.
func FormatReport(sec *section.Section, r *app.Report) string {
	if r.Cycle == nil {
		return noCycleText(sec)
	}

	var b strings.Builder
	writeCycleHeader(&b, sec, r)
	fmt.Fprintf(&b, "Présences du %s au %s\n", r.Period.From.Format(dateLayout), r.Period.To.Format(dateLayout))
	if len(r.Pairs) == 0 && len(r.Singles) == 0 {
		b.WriteString("\nAucun membre éligible.\n")
	}
	writePairs(&b, r, true)
	writeSingles(&b, r, true)
	return b.String()
}

func writePairs(b *strings.Builder, r *app.Report, withStats bool) {
	current := ""
	for _, p := range r.Pairs {
		label := bucketLabel(p.BracketName, p.AgeBracketID, p.Gender)
		if label != current {
			fmt.Fprintf(b, "\n%s\n", label)
			current = label
		}
		line := "  • " + memberNames(p.Members)
		if p.IsTrio {
			line += " (trio)"
		}
		if withStats {
			line += " : " + formatJoint(p.Stats)
		}
		b.WriteString(line + "\n")
	}
}

func writeSingles(b *strings.Builder, r *app.Report, withStats bool) {
	if len(r.Singles) == 0 {
		return
	}
	b.WriteString("\n" + app.SoloLabel + "\n")
	for _, s := range r.Singles {
		line := fmt.Sprintf("  • %s (%s)", memberNames([]app.ReportMember{s.Member}), bucketLabel(s.BracketName, s.AgeBracketID, s.Gender))
		if withStats {
			line += " : " + formatJoint(s.Stats)
		}
		b.WriteString(line + "\n")
	}
}

// FormatStatus renders the identity of the active cycle.
func FormatStatus(sec *section.Section, st *app.CycleStatus) string {
	if st == nil {
		return noCycleText(sec)
	}
	return fmt.Sprintf("Section %s : cycle #%d actif depuis le %s.\nProchaine rotation le %s.",
		sec.Name, st.ID, st.StartedAt.Format(dateLayout), st.NextRotationAt.Format(dateLayout))
}

// FormatSections lists sections with their ids.
func FormatSections(sections []*section.Section) string {
	if len(sections) == 0 {
		return "Aucune section enregistrée."
	}
	var b strings.Builder
	b.WriteString("Sections :\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "  • %d : %s\n", s.ID, s.Name)
	}
	return b.String()
}

package app

import (
	"context"
	"sort"
	"time"

	"binome_rotation_bot/internal/domain/pairing"
)

// SoloLabel marks members listed without a partner.
const SoloLabel = "Seul"

// CycleReader returns a section's active cycle after the expiry check.
type CycleReader interface {
	Current(ctx context.Context, sectionID int64) (*CycleView, error)
}

// Period is the attendance window of a report.
type Period struct {
	From time.Time
	To   time.Time
}

type ReportMember struct {
	ID   int64
	Name string
}

// ReportPair is a persisted pair, possibly shown as a trio with one leftover member.
type ReportPair struct {
	PairID       int64
	AgeBracketID int64
	BracketName  string
	Gender       string
	Members      []ReportMember
	IsTrio       bool
	CreatedAt    time.Time
	Stats        JointStats
}

type ReportSingle struct {
	Member       ReportMember
	AgeBracketID int64
	BracketName  string
	Gender       string
	Label        string
	Stats        JointStats
}

type Report struct {
	Cycle          *pairing.Cycle
	NextRotationAt time.Time
	Period         Period
	Pairs          []ReportPair
	Singles        []ReportSingle
}

// ReportService composes the active cycle with attendance into a report.
type ReportService struct {
	cycles CycleReader
	roster *RosterLoader
	stats  *AttendanceStatsProvider
	clock  Clock
}

func NewReportService(cycles CycleReader, roster *RosterLoader, stats *AttendanceStatsProvider, clock Clock) *ReportService {
	return &ReportService{cycles: cycles, roster: roster, stats: stats, clock: clock}
}

func (s *ReportService) Build(ctx context.Context, sectionID int64) (*Report, error) {
	now := s.clock.now()
	report := &Report{
		Period:  Period{From: now.AddDate(0, 0, -s.stats.WindowDays()), To: now},
		Pairs:   []ReportPair{},
		Singles: []ReportSingle{},
	}

	view, err := s.cycles.Current(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if view.Cycle == nil {
		return report, nil
	}
	report.Cycle = view.Cycle
	report.NextRotationAt = view.NextRotationAt

	roster, err := s.roster.Load(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	pairs := append([]*pairing.Pair(nil), view.Pairs...)
	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.AgeBracketID != b.AgeBracketID {
			return a.AgeBracketID < b.AgeBracketID
		}
		if a.Gender != b.Gender {
			return a.Gender < b.Gender
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	paired := make(map[int64]struct{}, 2*len(pairs))
	statIDs := roster.EligibleIDs()
	for _, p := range pairs {
		paired[p.MemberAID] = struct{}{}
		paired[p.MemberBID] = struct{}{}
		statIDs = append(statIDs, p.MemberAID, p.MemberBID)
	}

	stats, err := s.stats.PresenceStats(ctx, sectionID, statIDs, 0)
	if err != nil {
		return nil, err
	}
	report.Period = Period{From: stats.From, To: stats.To}

	leftovers := make(pairing.Buckets)
	for _, e := range roster.Eligible {
		if _, ok := paired[e.Member.ID]; ok {
			continue
		}
		leftovers[e.Bucket] = append(leftovers[e.Bucket], pairing.Candidate{MemberID: e.Member.ID, Bucket: e.Bucket})
	}

	firstPairOf := make(map[pairing.BucketKey]int)
	for i, p := range pairs {
		report.Pairs = append(report.Pairs, ReportPair{
			PairID:       p.ID,
			AgeBracketID: p.AgeBracketID,
			BracketName:  roster.BracketName(p.AgeBracketID),
			Gender:       p.Gender,
			Members:      []ReportMember{reportMember(roster, p.MemberAID), reportMember(roster, p.MemberBID)},
			CreatedAt:    p.CreatedAt,
			Stats:        stats.Joint(p.MemberAID, p.MemberBID),
		})
		if _, ok := firstPairOf[p.Bucket()]; !ok {
			firstPairOf[p.Bucket()] = i
		}
	}

	for _, key := range leftovers.Keys() {
		group := leftovers[key]
		sort.Slice(group, func(i, j int) bool { return group[i].MemberID < group[j].MemberID })

		if idx, ok := firstPairOf[key]; ok {
			rp := &report.Pairs[idx]
			extra := group[0]
			rp.Members = append(rp.Members, reportMember(roster, extra.MemberID))
			rp.IsTrio = true
			rp.Stats = stats.Joint(rp.Members[0].ID, rp.Members[1].ID, extra.MemberID)
			group = group[1:]
		}

		for _, c := range group {
			report.Singles = append(report.Singles, ReportSingle{
				Member:       reportMember(roster, c.MemberID),
				AgeBracketID: key.AgeBracketID,
				BracketName:  roster.BracketName(key.AgeBracketID),
				Gender:       key.Gender,
				Label:        SoloLabel,
				Stats:        stats.Joint(c.MemberID),
			})
		}
	}

	return report, nil
}

func reportMember(roster *Roster, id int64) ReportMember {
	rm := ReportMember{ID: id}
	if m, ok := roster.Member(id); ok {
		rm.Name = m.DisplayName()
	}
	return rm
}

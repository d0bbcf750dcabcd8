package app

import (
	"context"
	"fmt"
	"time"

	"binome_rotation_bot/internal/domain/attendance"
)

// JointStats is the attendance of a group of members considered together.
type JointStats struct {
	TotalMeetings int
	PresentAll    int
	Percent       *float64 // nil when there were no meetings
}

// PresenceStats is a snapshot of a section's attendance over a window.
type PresenceStats struct {
	From            time.Time
	To              time.Time
	TotalMeetings   int
	PresentByMember map[int64]int
	meetings        []map[int64]struct{}
}

// Joint computes how often all of memberIDs attended together.
func (s *PresenceStats) Joint(memberIDs ...int64) JointStats {
	presentAll := attendance.CountAllPresent(s.meetings, memberIDs)
	return JointStats{
		TotalMeetings: s.TotalMeetings,
		PresentAll:    presentAll,
		Percent:       attendance.Percent(presentAll, s.TotalMeetings),
	}
}

// AttendanceStatsProvider computes presence counts from meeting records.
type AttendanceStatsProvider struct {
	repo       attendance.Repository
	windowDays int
	clock      Clock
}

func NewAttendanceStatsProvider(repo attendance.Repository, windowDays int, clock Clock) *AttendanceStatsProvider {
	if windowDays <= 0 {
		windowDays = attendance.DefaultWindowDays
	}
	return &AttendanceStatsProvider{repo: repo, windowDays: windowDays, clock: clock}
}

// WindowDays returns the default window of the provider.
func (p *AttendanceStatsProvider) WindowDays() int {
	return p.windowDays
}

// PresenceStats counts, for each of memberIDs, the section meetings of the
// last windowDays they attended. windowDays <= 0 uses the provider default.
func (p *AttendanceStatsProvider) PresenceStats(ctx context.Context, sectionID int64, memberIDs []int64, windowDays int) (*PresenceStats, error) {
	if windowDays <= 0 {
		windowDays = p.windowDays
	}
	now := p.clock.now()
	since := now.AddDate(0, 0, -windowDays)

	meetings, err := p.repo.ListMeetingsSince(ctx, sectionID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings of section %d: %w", sectionID, err)
	}

	stats := &PresenceStats{
		From:            since,
		To:              now,
		TotalMeetings:   len(meetings),
		PresentByMember: make(map[int64]int, len(memberIDs)),
		meetings:        make([]map[int64]struct{}, 0, len(meetings)),
	}
	for _, id := range memberIDs {
		stats.PresentByMember[id] = 0
	}
	for _, m := range meetings {
		present := m.PresenceSet()
		stats.meetings = append(stats.meetings, present)
		for id := range stats.PresentByMember {
			if _, ok := present[id]; ok {
				stats.PresentByMember[id]++
			}
		}
	}
	return stats, nil
}

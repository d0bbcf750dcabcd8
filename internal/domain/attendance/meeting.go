package attendance

import (
	"context"
	"time"
)

// Meeting is one attendance record of a section. Read-only for this service.
type Meeting struct {
	ID               int64
	SectionID        int64
	Date             time.Time
	PresentMemberIDs []int64
}

// PresenceSet returns the present members as a set.
func (m *Meeting) PresenceSet() map[int64]struct{} {
	set := make(map[int64]struct{}, len(m.PresentMemberIDs))
	for _, id := range m.PresentMemberIDs {
		set[id] = struct{}{}
	}
	return set
}

// Repository defines read access to attendance records.
type Repository interface {
	// ListMeetingsSince returns the meetings of a section dated at or after since.
	ListMeetingsSince(ctx context.Context, sectionID int64, since time.Time) ([]*Meeting, error)
}

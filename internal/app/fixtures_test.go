package app

import (
	"database/sql"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"binome_rotation_bot/internal/domain/member"

	"github.com/sirupsen/logrus"
)

var testNow = time.Date(2026, time.October, 14, 10, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(months int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.AddDate(0, months, 0)
}

func testBrackets() []*member.AgeBracket {
	return []*member.AgeBracket{
		{ID: 1, Name: "S1", Order: 1, MinAge: 8, MaxAge: sql.NullInt32{Int32: 11, Valid: true}},
		{ID: 2, Name: "S2", Order: 2, MinAge: 12, MaxAge: sql.NullInt32{Int32: 17, Valid: true}},
	}
}

// kid returns a ten year old member (bracket S1 at testNow).
func kid(id, sectionID int64, name, gender string) *member.Member {
	return &member.Member{
		ID:        id,
		SectionID: sectionID,
		FirstName: name,
		BirthDate: sql.NullTime{Time: time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		Gender:    gender,
	}
}

// teen returns a fourteen year old member (bracket S2 at testNow).
func teen(id, sectionID int64, name, gender string) *member.Member {
	m := kid(id, sectionID, name, gender)
	m.BirthDate.Time = time.Date(2012, time.March, 3, 0, 0, 0, 0, time.UTC)
	return m
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type harness struct {
	clock      *testClock
	sections   *mockSectionRepo
	members    *mockMemberRepo
	attendance *mockAttendanceRepo
	pairing    *mockPairingRepo
	metrics    *recordingMetrics
	rotation   *RotationService
	reports    *ReportService
}

func newHarness(t *testing.T, sectionIDs ...int64) *harness {
	t.Helper()
	h := &harness{
		clock:      &testClock{t: testNow},
		sections:   newMockSectionRepo(sectionIDs...),
		members:    newMockMemberRepo(testBrackets()),
		attendance: &mockAttendanceRepo{},
		pairing:    newMockPairingRepo(),
		metrics:    newRecordingMetrics(),
	}
	clock := Clock(h.clock.Now)
	roster := NewRosterLoader(h.members, clock)
	stats := NewAttendanceStatsProvider(h.attendance, 90, clock)
	forbidden := NewForbiddenPairIndex(h.pairing, 12, clock)

	h.rotation = NewRotationService(h.sections, h.pairing, roster, stats, forbidden, h.metrics,
		discardLogger(), 3, clock, rand.New(rand.NewPCG(1, 2)))
	h.reports = NewReportService(h.rotation, roster, stats, clock)
	return h
}

// seedABCD adds four ten year old boys to sectionID with 10, 8, 2 and 0
// presences over the last ten weekly meetings.
func (h *harness) seedABCD(sectionID int64) {
	base := sectionID * 10
	h.members.add(
		kid(base+1, sectionID, "A", "M"),
		kid(base+2, sectionID, "B", "M"),
		kid(base+3, sectionID, "C", "M"),
		kid(base+4, sectionID, "D", "M"),
	)
	for i := 0; i < 10; i++ {
		present := []int64{base + 1}
		if i < 8 {
			present = append(present, base+2)
		}
		if i < 2 {
			present = append(present, base+3)
		}
		h.attendance.add(sectionID, testNow.AddDate(0, 0, -7*(i+1)), present...)
	}
}

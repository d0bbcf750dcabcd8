package app

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"binome_rotation_bot/internal/domain/attendance"
	"binome_rotation_bot/internal/domain/member"
	"binome_rotation_bot/internal/domain/pairing"
	"binome_rotation_bot/internal/domain/section"
	idb "binome_rotation_bot/internal/infra/database"
)

// ── Mock SectionRepository ──

type mockSectionRepo struct {
	sections map[int64]*section.Section
	listErr  error
}

func newMockSectionRepo(ids ...int64) *mockSectionRepo {
	m := &mockSectionRepo{sections: make(map[int64]*section.Section)}
	for _, id := range ids {
		m.sections[id] = &section.Section{ID: id, Name: "Section"}
	}
	return m
}

func (m *mockSectionRepo) GetByID(_ context.Context, id int64) (*section.Section, error) {
	if s, ok := m.sections[id]; ok {
		return s, nil
	}
	return nil, idb.ErrSectionNotFound
}

func (m *mockSectionRepo) ListAll(_ context.Context) ([]*section.Section, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]*section.Section, 0, len(m.sections))
	for _, s := range m.sections {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ── Mock MemberRepository ──

type mockMemberRepo struct {
	mu       sync.Mutex
	members  map[int64][]*member.Member
	brackets []*member.AgeBracket
	errs     map[int64]error
}

func newMockMemberRepo(brackets []*member.AgeBracket) *mockMemberRepo {
	return &mockMemberRepo{
		members:  make(map[int64][]*member.Member),
		brackets: brackets,
		errs:     make(map[int64]error),
	}
}

func (m *mockMemberRepo) add(members ...*member.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mem := range members {
		m.members[mem.SectionID] = append(m.members[mem.SectionID], mem)
	}
}

func (m *mockMemberRepo) ListBySection(_ context.Context, sectionID int64) ([]*member.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[sectionID]; err != nil {
		return nil, err
	}
	return append([]*member.Member(nil), m.members[sectionID]...), nil
}

func (m *mockMemberRepo) ListBrackets(_ context.Context) ([]*member.AgeBracket, error) {
	return m.brackets, nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	mu       sync.Mutex
	meetings []*attendance.Meeting
}

func (m *mockAttendanceRepo) add(sectionID int64, date time.Time, present ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meetings = append(m.meetings, &attendance.Meeting{
		ID:               int64(len(m.meetings) + 1),
		SectionID:        sectionID,
		Date:             date,
		PresentMemberIDs: present,
	})
}

func (m *mockAttendanceRepo) ListMeetingsSince(_ context.Context, sectionID int64, since time.Time) ([]*attendance.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*attendance.Meeting
	for _, mt := range m.meetings {
		if mt.SectionID == sectionID && !mt.Date.Before(since) {
			result = append(result, mt)
		}
	}
	return result, nil
}

// ── Mock PairingRepository ──

// mockPairingRepo mirrors the transactional semantics of the postgres adapter.
type mockPairingRepo struct {
	mu           sync.Mutex
	cycles       []*pairing.Cycle
	pairs        []*pairing.Pair
	replaceErr   error // returned by every ReplaceActiveCycle, nothing is written
	conflictOnce bool  // next ReplaceActiveCycle reports a concurrent rotation
	replaceCalls int

	// getGate holds the next GetActiveCycle until closed; getEntered is
	// closed once that call is waiting.
	getGate    chan struct{}
	getEntered chan struct{}
}

func newMockPairingRepo() *mockPairingRepo {
	return &mockPairingRepo{}
}

func (m *mockPairingRepo) holdNextGet() (entered, release chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getGate, m.getEntered = make(chan struct{}), make(chan struct{})
	return m.getEntered, m.getGate
}

func (m *mockPairingRepo) waitGate(ctx context.Context) error {
	m.mu.Lock()
	gate, entered := m.getGate, m.getEntered
	m.getGate, m.getEntered = nil, nil
	m.mu.Unlock()
	if gate == nil {
		return nil
	}
	close(entered)
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mockPairingRepo) GetActiveCycle(ctx context.Context, sectionID int64) (*pairing.Cycle, error) {
	if err := m.waitGate(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.cycles) - 1; i >= 0; i-- {
		c := m.cycles[i]
		if c.SectionID == sectionID && c.IsActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, idb.ErrCycleNotFound
}

func (m *mockPairingRepo) ListPairsByCycle(_ context.Context, cycleID int64) ([]*pairing.Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*pairing.Pair, 0)
	for _, p := range m.pairs {
		if p.CycleID == cycleID {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *mockPairingRepo) ListPairsStartedSince(_ context.Context, sectionID int64, since time.Time) ([]*pairing.Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	started := make(map[int64]bool)
	for _, c := range m.cycles {
		if c.SectionID == sectionID && !c.StartedAt.Before(since) {
			started[c.ID] = true
		}
	}
	var result []*pairing.Pair
	for _, p := range m.pairs {
		if started[p.CycleID] {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *mockPairingRepo) ReplaceActiveCycle(_ context.Context, rep *pairing.Replacement) (*pairing.Cycle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++

	if m.replaceErr != nil {
		return nil, m.replaceErr
	}
	if m.conflictOnce {
		m.conflictOnce = false
		return nil, idb.ErrRotationConflict
	}

	var active []*pairing.Cycle
	for _, c := range m.cycles {
		if c.SectionID == rep.SectionID && c.IsActive {
			active = append(active, c)
		}
	}

	switch {
	case rep.RequireNoActive:
		if len(active) > 0 {
			return nil, idb.ErrRotationConflict
		}
	case rep.ExpectedActiveID.Valid:
		if len(active) != 1 || active[0].ID != rep.ExpectedActiveID.Int64 {
			return nil, idb.ErrRotationConflict
		}
	}
	for _, c := range active {
		c.IsActive = false
		c.EndedAt = sql.NullTime{Time: rep.StartedAt, Valid: true}
	}

	cycle := &pairing.Cycle{
		ID:        int64(len(m.cycles) + 1),
		SectionID: rep.SectionID,
		StartedAt: rep.StartedAt,
		IsActive:  true,
	}
	m.cycles = append(m.cycles, cycle)

	for _, p := range rep.Pairs {
		p.ID = int64(len(m.pairs) + 1)
		p.CycleID = cycle.ID
		p.CreatedAt = rep.StartedAt
		cp := *p
		m.pairs = append(m.pairs, &cp)
	}

	out := *cycle
	return &out, nil
}

func (m *mockPairingRepo) CountActiveCycles(_ context.Context, sectionID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.cycles {
		if c.SectionID == sectionID && c.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *mockPairingRepo) cycleByID(id int64) *pairing.Cycle {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cycles {
		if c.ID == id {
			cp := *c
			return &cp
		}
	}
	return nil
}

func (m *mockPairingRepo) cycleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cycles)
}

// ── Recording metrics ──

type recordingMetrics struct {
	mu        sync.Mutex
	rotations map[string]int
	failures  map[string]int
	sweeps    int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{rotations: make(map[string]int), failures: make(map[string]int)}
}

func (r *recordingMetrics) RecordRotation(trigger, _ string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rotations[trigger]++
}

func (r *recordingMetrics) RecordRotationFailure(trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[trigger]++
}

func (r *recordingMetrics) RecordSweep(_, _, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweeps++
}

package app

import (
	"context"
	"fmt"

	"binome_rotation_bot/internal/domain/member"
	"binome_rotation_bot/internal/domain/pairing"
)

// EligibleMember is a member that resolved to both a bracket and a gender.
type EligibleMember struct {
	Member *member.Member
	Bucket pairing.BucketKey
}

// Roster is a section's members partitioned for pairing.
type Roster struct {
	Eligible []EligibleMember
	members  map[int64]*member.Member
	brackets map[int64]*member.AgeBracket
}

// Member returns any member of the section, eligible or not.
func (r *Roster) Member(id int64) (*member.Member, bool) {
	m, ok := r.members[id]
	return m, ok
}

// BracketName returns the catalog name of a bracket id, or "" when unknown.
func (r *Roster) BracketName(id int64) string {
	if b, ok := r.brackets[id]; ok {
		return b.Name
	}
	return ""
}

// EligibleIDs returns the ids of eligible members in roster order.
func (r *Roster) EligibleIDs() []int64 {
	ids := make([]int64, 0, len(r.Eligible))
	for _, e := range r.Eligible {
		ids = append(ids, e.Member.ID)
	}
	return ids
}

// Buckets builds the engine input, attaching presence counts.
func (r *Roster) Buckets(presence map[int64]int) pairing.Buckets {
	candidates := make([]pairing.Candidate, 0, len(r.Eligible))
	for _, e := range r.Eligible {
		candidates = append(candidates, pairing.Candidate{
			MemberID: e.Member.ID,
			Bucket:   e.Bucket,
			Presence: presence[e.Member.ID],
		})
	}
	return pairing.Partition(candidates)
}

// RosterLoader reads a section's members and applies the eligibility filter.
type RosterLoader struct {
	members member.Repository
	clock   Clock
}

func NewRosterLoader(mr member.Repository, clock Clock) *RosterLoader {
	return &RosterLoader{members: mr, clock: clock}
}

func (l *RosterLoader) Load(ctx context.Context, sectionID int64) (*Roster, error) {
	brackets, err := l.members.ListBrackets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list age brackets: %w", err)
	}
	members, err := l.members.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of section %d: %w", sectionID, err)
	}

	resolver := member.NewBracketResolver(brackets)
	now := l.clock.now()

	roster := &Roster{
		members:  make(map[int64]*member.Member, len(members)),
		brackets: make(map[int64]*member.AgeBracket, len(brackets)),
	}
	for _, b := range brackets {
		roster.brackets[b.ID] = b
	}
	for _, m := range members {
		roster.members[m.ID] = m

		bracketID, ok := resolver.Resolve(m, now)
		if !ok {
			continue
		}
		gender, ok := member.NormalizeGender(m.Gender)
		if !ok {
			continue
		}
		roster.Eligible = append(roster.Eligible, EligibleMember{
			Member: m,
			Bucket: pairing.BucketKey{AgeBracketID: bracketID, Gender: gender},
		})
	}
	return roster, nil
}

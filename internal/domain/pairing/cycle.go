package pairing

import (
	"database/sql"
	"time"
)

// DefaultRotationMonths is how long a cycle stays active before it is rotated.
const DefaultRotationMonths = 3

// Cycle is one generation of pairings of a section.
// Corresponds to the 'binome_cycles' table. Created active, closed exactly once.
type Cycle struct {
	ID        int64
	SectionID int64
	StartedAt time.Time
	EndedAt   sql.NullTime
	IsActive  bool
}

// NextRotationAt is the instant at which the cycle expires.
func (c *Cycle) NextRotationAt(rotationMonths int) time.Time {
	return c.StartedAt.AddDate(0, rotationMonths, 0)
}

// IsExpired reports whether now is at or past NextRotationAt.
func (c *Cycle) IsExpired(now time.Time, rotationMonths int) bool {
	return !now.Before(c.NextRotationAt(rotationMonths))
}

// Pair is a persisted binôme of a cycle. Pairs of closed cycles are kept for history.
// Corresponds to the 'binome_pairs' table.
type Pair struct {
	ID           int64
	CycleID      int64
	AgeBracketID int64
	Gender       string
	MemberAID    int64
	MemberBID    int64
	CreatedAt    time.Time
}

// Bucket returns the partition key the pair was formed in.
func (p *Pair) Bucket() BucketKey {
	return BucketKey{AgeBracketID: p.AgeBracketID, Gender: p.Gender}
}

// Key returns the order-independent key of the two members.
func (p *Pair) Key() ForbiddenKey {
	return NewForbiddenKey(p.MemberAID, p.MemberBID)
}

package pairing

import (
	"context"
	"database/sql"
	"time"
)

// Replacement describes the atomic swap of a section's active cycle.
type Replacement struct {
	SectionID int64
	// ExpectedActiveID, when valid, is the only cycle allowed to be closed.
	// If it is no longer active the replacement fails with a conflict.
	// When not valid, whatever cycle is active gets closed.
	ExpectedActiveID sql.NullInt64
	// RequireNoActive makes the replacement fail with a conflict when the
	// section already has an active cycle. Used to create a first cycle.
	RequireNoActive bool
	StartedAt        time.Time
	Pairs            []*Pair
}

// Repository defines operations for cycles and their pairs.
type Repository interface {
	GetActiveCycle(ctx context.Context, sectionID int64) (*Cycle, error)
	ListPairsByCycle(ctx context.Context, cycleID int64) ([]*Pair, error)
	// ListPairsStartedSince returns pairs of every cycle of the section started at or after since.
	ListPairsStartedSince(ctx context.Context, sectionID int64, since time.Time) ([]*Pair, error)
	// ReplaceActiveCycle closes the active cycle and creates a new active
	// one with its pairs in a single transaction. Pairs get their ids filled.
	ReplaceActiveCycle(ctx context.Context, r *Replacement) (*Cycle, error)
	// CountActiveCycles is used to verify the one-active-cycle invariant.
	CountActiveCycles(ctx context.Context, sectionID int64) (int, error)
}

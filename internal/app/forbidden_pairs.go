package app

import (
	"context"
	"fmt"

	"binome_rotation_bot/internal/domain/pairing"
)

// DefaultForbiddenLookbackMonths is how far back past pairs are avoided.
const DefaultForbiddenLookbackMonths = 12

// ForbiddenPairIndex collects member pairs formed in recent cycles.
type ForbiddenPairIndex struct {
	repo           pairing.Repository
	lookbackMonths int
	clock          Clock
}

func NewForbiddenPairIndex(repo pairing.Repository, lookbackMonths int, clock Clock) *ForbiddenPairIndex {
	if lookbackMonths <= 0 {
		lookbackMonths = DefaultForbiddenLookbackMonths
	}
	return &ForbiddenPairIndex{repo: repo, lookbackMonths: lookbackMonths, clock: clock}
}

// Build returns the pairs of the section's cycles started within lookbackMonths.
// lookbackMonths <= 0 uses the index default.
func (i *ForbiddenPairIndex) Build(ctx context.Context, sectionID int64, lookbackMonths int) (pairing.ForbiddenSet, error) {
	if lookbackMonths <= 0 {
		lookbackMonths = i.lookbackMonths
	}
	since := i.clock.now().AddDate(0, -lookbackMonths, 0)

	history, err := i.repo.ListPairsStartedSince(ctx, sectionID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load pair history of section %d: %w", sectionID, err)
	}
	return pairing.BuildForbiddenSet(history), nil
}

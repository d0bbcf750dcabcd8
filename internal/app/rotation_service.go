// internal/app/rotation_service.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"binome_rotation_bot/internal/domain/pairing"
	"binome_rotation_bot/internal/domain/section"
	idb "binome_rotation_bot/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Trigger names what caused a cycle to be created.
type Trigger string

const (
	TriggerGenerate  Trigger = "manual_generate"
	TriggerRotate    Trigger = "manual_rotate"
	TriggerLazy      Trigger = "lazy"
	TriggerSweep     Trigger = "sweep"
	TriggerBootstrap Trigger = "bootstrap"
)

// RotationMetrics receives rotation outcomes.
type RotationMetrics interface {
	RecordRotation(trigger, policy string, pairs int)
	RecordRotationFailure(trigger string)
	RecordSweep(evaluated, rotated, failed int, d time.Duration)
}

// CycleView is an active cycle with its pairs. Cycle is nil when the section has none.
type CycleView struct {
	Cycle          *pairing.Cycle
	Pairs          []*pairing.Pair
	Solos          []pairing.Solo // only set right after a rotation
	NextRotationAt time.Time
}

// CycleStatus is the cheap existence probe of a section's active cycle.
type CycleStatus struct {
	ID             int64
	StartedAt      time.Time
	NextRotationAt time.Time
}

// SweepSummary counts what one background sweep did.
type SweepSummary struct {
	Evaluated    int
	Rotated      int
	Bootstrapped int
	Skipped      int
	Failed       int
}

// RotationService owns the cycle lifecycle of every section: manual
// generation, expiry checks on read, and the periodic sweep.
type RotationService struct {
	sectionRepo    section.Repository
	pairingRepo    pairing.Repository
	roster         *RosterLoader
	stats          *AttendanceStatsProvider
	forbidden      *ForbiddenPairIndex
	metrics        RotationMetrics
	logger         *logrus.Entry
	rotationMonths int
	clock          Clock

	rngMu sync.Mutex
	rng   *rand.Rand

	flight singleflight.Group
}

func NewRotationService(
	sr section.Repository,
	pr pairing.Repository,
	roster *RosterLoader,
	stats *AttendanceStatsProvider,
	forbidden *ForbiddenPairIndex,
	metrics RotationMetrics,
	logger *logrus.Entry,
	rotationMonths int,
	clock Clock,
	rng *rand.Rand, // nil seeds a fresh generator
) *RotationService {
	if rotationMonths <= 0 {
		rotationMonths = pairing.DefaultRotationMonths
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RotationService{
		sectionRepo:    sr,
		pairingRepo:    pr,
		roster:         roster,
		stats:          stats,
		forbidden:      forbidden,
		metrics:        metrics,
		logger:         logger,
		rotationMonths: rotationMonths,
		clock:          clock,
		rng:            rng,
	}
}

// Generate closes the active cycle, if any, and creates one with random pairs.
func (s *RotationService) Generate(ctx context.Context, sectionID int64) (*CycleView, error) {
	roster, err := s.roster.Load(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	result := pairing.GenerateRandom(roster.Buckets(nil), s.rng)
	s.rngMu.Unlock()

	return s.replace(ctx, &pairing.Replacement{SectionID: sectionID}, pairing.PolicyRandom, result, TriggerGenerate)
}

// Rotate closes the active cycle, if any, and creates one pairing the most
// present members with the least present ones. Past pairs are not avoided.
func (s *RotationService) Rotate(ctx context.Context, sectionID int64) (*CycleView, error) {
	roster, err := s.roster.Load(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats.PresenceStats(ctx, sectionID, roster.EligibleIDs(), 0)
	if err != nil {
		return nil, err
	}

	result := pairing.RotateBalanced(roster.Buckets(stats.PresentByMember))
	return s.replace(ctx, &pairing.Replacement{SectionID: sectionID}, pairing.PolicyBalanced, result, TriggerRotate)
}

// Current runs the expiry check and returns the active cycle with its pairs.
func (s *RotationService) Current(ctx context.Context, sectionID int64) (*CycleView, error) {
	cycle, _, err := s.checkExpiry(ctx, sectionID, TriggerLazy)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return &CycleView{Pairs: []*pairing.Pair{}}, nil
	}

	pairs, err := s.pairingRepo.ListPairsByCycle(ctx, cycle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairs of cycle %d: %w", cycle.ID, err)
	}
	return &CycleView{Cycle: cycle, Pairs: pairs, NextRotationAt: cycle.NextRotationAt(s.rotationMonths)}, nil
}

// Status returns the active cycle's identity without running the expiry
// check. It returns nil when the section has no active cycle.
func (s *RotationService) Status(ctx context.Context, sectionID int64) (*CycleStatus, error) {
	cycle, err := s.pairingRepo.GetActiveCycle(ctx, sectionID)
	if err != nil {
		if errors.Is(err, idb.ErrCycleNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active cycle of section %d: %w", sectionID, err)
	}
	return &CycleStatus{ID: cycle.ID, StartedAt: cycle.StartedAt, NextRotationAt: cycle.NextRotationAt(s.rotationMonths)}, nil
}

// CheckExpiry rotates the section's active cycle when it has expired. It
// returns the cycle active afterwards (nil if none) and whether a lazy check
// rotated it.
func (s *RotationService) CheckExpiry(ctx context.Context, sectionID int64) (*pairing.Cycle, bool, error) {
	return s.checkExpiry(ctx, sectionID, TriggerLazy)
}

// SweepAll evaluates every section. A failing section is logged and counted,
// and the sweep moves on to the next one.
func (s *RotationService) SweepAll(ctx context.Context) (SweepSummary, error) {
	started := time.Now()
	sweepLogger := s.logger.WithField("sweep_id", uuid.NewString())

	var summary SweepSummary
	sections, err := s.sectionRepo.ListAll(ctx)
	if err != nil {
		sweepLogger.WithError(err).Error("Failed to list sections for rotation sweep")
		s.metrics.RecordSweep(0, 0, 1, time.Since(started))
		return summary, fmt.Errorf("failed to list sections: %w", err)
	}

	for _, sec := range sections {
		if ctx.Err() != nil {
			sweepLogger.WithError(ctx.Err()).Warn("Rotation sweep interrupted")
			break
		}
		summary.Evaluated++

		logEntry := sweepLogger.WithField("section_id", sec.ID)
		outcome, err := s.sweepSection(ctx, sec.ID)
		if err != nil {
			summary.Failed++
			logEntry.WithError(err).Error("Rotation check failed for section")
			continue
		}
		switch outcome {
		case TriggerSweep:
			summary.Rotated++
		case TriggerBootstrap:
			summary.Bootstrapped++
		default:
			summary.Skipped++
		}
	}

	s.metrics.RecordSweep(summary.Evaluated, summary.Rotated+summary.Bootstrapped, summary.Failed, time.Since(started))
	sweepLogger.WithFields(logrus.Fields{
		"evaluated":    summary.Evaluated,
		"rotated":      summary.Rotated,
		"bootstrapped": summary.Bootstrapped,
		"failed":       summary.Failed,
	}).Info("Rotation sweep finished")
	return summary, nil
}

// sweepSection returns TriggerSweep when an expired cycle was rotated,
// TriggerBootstrap when a first cycle was created, "" otherwise.
func (s *RotationService) sweepSection(ctx context.Context, sectionID int64) (Trigger, error) {
	cycle, rotated, err := s.checkExpiry(ctx, sectionID, TriggerSweep)
	if err != nil {
		return "", err
	}
	if rotated {
		return TriggerSweep, nil
	}
	if cycle != nil {
		return "", nil
	}

	roster, err := s.roster.Load(ctx, sectionID)
	if err != nil {
		return "", err
	}
	if roster.Buckets(nil).FormablePairs() == 0 {
		return "", nil
	}

	_, err = s.rotateForSection(ctx, &pairing.Replacement{SectionID: sectionID, RequireNoActive: true}, TriggerBootstrap)
	if errors.Is(err, idb.ErrRotationConflict) {
		// a cycle appeared meanwhile
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return TriggerBootstrap, nil
}

// expiryCheckTimeout bounds a shared expiry check, independently of the
// callers waiting on it.
const expiryCheckTimeout = 2 * time.Minute

type expiryOutcome struct {
	cycle   *pairing.Cycle
	rotated bool
	trigger Trigger // trigger of the caller that ran the check
}

// checkExpiry coalesces concurrent checks of the same section in this process.
// The shared check runs detached from any single caller's cancellation; each
// caller stops waiting when its own ctx is done. rotated is only reported to
// callers with the trigger that performed the rotation. Across processes the
// conditional close in ReplaceActiveCycle decides.
func (s *RotationService) checkExpiry(ctx context.Context, sectionID int64, trigger Trigger) (*pairing.Cycle, bool, error) {
	ch := s.flight.DoChan(strconv.FormatInt(sectionID, 10), func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), expiryCheckTimeout)
		defer cancel()
		return s.runExpiryCheck(flightCtx, sectionID, trigger)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		out := res.Val.(expiryOutcome)
		return out.cycle, out.rotated && out.trigger == trigger, nil
	}
}

func (s *RotationService) runExpiryCheck(ctx context.Context, sectionID int64, trigger Trigger) (expiryOutcome, error) {
	cycle, err := s.pairingRepo.GetActiveCycle(ctx, sectionID)
	if err != nil {
		if errors.Is(err, idb.ErrCycleNotFound) {
			return expiryOutcome{trigger: trigger}, nil
		}
		return expiryOutcome{}, fmt.Errorf("failed to get active cycle of section %d: %w", sectionID, err)
	}

	now := s.clock.now()
	if !cycle.IsExpired(now, s.rotationMonths) {
		return expiryOutcome{cycle: cycle, trigger: trigger}, nil
	}

	s.logger.WithFields(logrus.Fields{
		"section_id":       sectionID,
		"cycle_id":         cycle.ID,
		"next_rotation_at": cycle.NextRotationAt(s.rotationMonths).Format(time.RFC3339),
		"trigger":          trigger,
	}).Info("Binome cycle expired, rotating")

	view, err := s.rotateForSection(ctx, &pairing.Replacement{
		SectionID:        sectionID,
		ExpectedActiveID: sql.NullInt64{Int64: cycle.ID, Valid: true},
	}, trigger)
	if errors.Is(err, idb.ErrRotationConflict) {
		current, err := s.pairingRepo.GetActiveCycle(ctx, sectionID)
		if errors.Is(err, idb.ErrCycleNotFound) {
			return expiryOutcome{trigger: trigger}, nil
		}
		if err != nil {
			return expiryOutcome{}, fmt.Errorf("failed to reload active cycle of section %d: %w", sectionID, err)
		}
		return expiryOutcome{cycle: current, trigger: trigger}, nil
	}
	if err != nil {
		return expiryOutcome{}, err
	}
	return expiryOutcome{cycle: view.Cycle, rotated: true, trigger: trigger}, nil
}

// rotateForSection builds presence-balanced pairs that avoid recent repeats.
func (s *RotationService) rotateForSection(ctx context.Context, rep *pairing.Replacement, trigger Trigger) (*CycleView, error) {
	roster, err := s.roster.Load(ctx, rep.SectionID)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats.PresenceStats(ctx, rep.SectionID, roster.EligibleIDs(), 0)
	if err != nil {
		return nil, err
	}
	forbidden, err := s.forbidden.Build(ctx, rep.SectionID, 0)
	if err != nil {
		return nil, err
	}

	result := pairing.RotateAvoidingRepeats(roster.Buckets(stats.PresentByMember), forbidden)
	return s.replace(ctx, rep, pairing.PolicyAvoidRepeats, result, trigger)
}

func (s *RotationService) replace(ctx context.Context, rep *pairing.Replacement, policy pairing.Policy, result pairing.Result, trigger Trigger) (*CycleView, error) {
	logEntry := s.logger.WithFields(logrus.Fields{
		"section_id": rep.SectionID,
		"policy":     policy,
		"trigger":    trigger,
	})

	rep.StartedAt = s.clock.now()
	rep.Pairs = make([]*pairing.Pair, 0, len(result.Pairs))
	for _, a := range result.Pairs {
		rep.Pairs = append(rep.Pairs, &pairing.Pair{
			AgeBracketID: a.Bucket.AgeBracketID,
			Gender:       a.Bucket.Gender,
			MemberAID:    a.MemberA,
			MemberBID:    a.MemberB,
		})
	}

	cycle, err := s.pairingRepo.ReplaceActiveCycle(ctx, rep)
	if err != nil {
		if errors.Is(err, idb.ErrRotationConflict) {
			logEntry.Info("Cycle already rotated by another trigger")
			return nil, err
		}
		s.metrics.RecordRotationFailure(string(trigger))
		logEntry.WithError(err).Error("Failed to persist new binome cycle")
		return nil, fmt.Errorf("failed to replace active cycle of section %d: %w", rep.SectionID, err)
	}

	s.metrics.RecordRotation(string(trigger), string(policy), len(rep.Pairs))
	logEntry.WithFields(logrus.Fields{
		"cycle_id": cycle.ID,
		"pairs":    len(rep.Pairs),
		"solos":    len(result.Solos),
	}).Info("New binome cycle created")

	return &CycleView{
		Cycle:          cycle,
		Pairs:          rep.Pairs,
		Solos:          result.Solos,
		NextRotationAt: cycle.NextRotationAt(s.rotationMonths),
	}, nil
}

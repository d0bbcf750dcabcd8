package scheduler

import (
	"context"
	"fmt"
	"time"

	"binome_rotation_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultSweepTimeout bounds a single sweep run.
const DefaultSweepTimeout = 5 * time.Minute

// Sweeper evaluates the rotation of every section.
type Sweeper interface {
	SweepAll(ctx context.Context) (app.SweepSummary, error)
}

type RotationScheduler struct {
	cronEngine   *cron.Cron
	sweeper      Sweeper
	logger       *logrus.Entry
	cronSpec     string
	sweepOnStart bool
	sweepTimeout time.Duration
}

func NewRotationScheduler(
	sweeper Sweeper,
	logger *logrus.Entry,
	cronSpec string, // e.g. "@every 1h" or "0 3 * * *"
	sweepOnStart bool,
) *RotationScheduler {
	return &RotationScheduler{
		// overlapping sweeps are skipped, the next tick catches up
		cronEngine: cron.New(
			cron.WithLocation(time.Local),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		sweeper:      sweeper,
		logger:       logger,
		cronSpec:     cronSpec,
		sweepOnStart: sweepOnStart,
		sweepTimeout: DefaultSweepTimeout,
	}
}

// Start registers the sweep job and starts the cron engine. With sweepOnStart
// a first sweep runs right away in the background.
func (s *RotationScheduler) Start() error {
	s.logger.WithField("cron_spec", s.cronSpec).Info("Starting rotation scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Debug("Cron job triggered for rotation sweep.")
		s.RunSweep()
	})
	if err != nil {
		return fmt.Errorf("could not add rotation sweep cron job %q: %w", s.cronSpec, err)
	}

	s.cronEngine.Start()
	if s.sweepOnStart {
		go s.RunSweep()
	}
	s.logger.Info("Rotation scheduler started.")
	return nil
}

// RunSweep runs one sweep with the scheduler timeout. Errors are logged.
func (s *RotationScheduler) RunSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.sweepTimeout)
	defer cancel()

	summary, err := s.sweeper.SweepAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Rotation sweep failed")
		return
	}
	if summary.Failed > 0 {
		s.logger.WithField("failed", summary.Failed).Warn("Rotation sweep finished with failing sections")
	}
}

func (s *RotationScheduler) Stop() {
	s.logger.Info("Stopping rotation scheduler...")
	ctx := s.cronEngine.Stop() // waits for a running sweep
	<-ctx.Done()
	s.logger.Info("Rotation scheduler gracefully stopped.")
}

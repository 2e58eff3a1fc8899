package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const jobTimeout = time.Minute

// JobFunc is a unit of background work.
type JobFunc func(ctx context.Context) error

// Scheduler runs background jobs on cron schedules. Jobs never overlap with
// themselves and a panicking job does not bring the scheduler down.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() *Scheduler {
	logger := cronLogger{log.Logger.With().Str("component", "scheduler").Logger()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers fn under a standard cron expression or descriptor such as
// "@every 1m".
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			log.Error().Err(err).Str("job", name).Msg("Scheduler: job failed")
			return
		}
		log.Debug().Str("job", name).Dur("duration", time.Since(start)).Msg("Scheduler: job finished")
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	return nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("Starting background scheduler...")
	s.cron.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop halts the scheduler. In-flight jobs see their context cancelled.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopping background scheduler.")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

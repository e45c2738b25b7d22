// Package scheduler runs the recurring background jobs: the nightly market
// data sweep and the nightly offsite backup.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler owns the cron runner and its registered jobs.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a scheduler. Jobs are registered separately so either can be
// disabled by leaving its schedule empty.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// AddJob schedules a named job. An empty spec disables the job.
func (s *Scheduler) AddJob(name, spec string, run func() error) error {
	if spec == "" {
		s.log.Info().Str("job", name).Msg("Job disabled, no schedule configured")
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		s.log.Info().Str("job", name).Msg("Scheduled job starting")
		if err := run(); err != nil {
			s.log.Error().Err(err).Str("job", name).Msg("Scheduled job failed")
			return
		}
		s.log.Info().Str("job", name).Msg("Scheduled job finished")
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("job", name).Str("schedule", spec).Msg("Registered job")
	return nil
}

// Start begins running registered jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron runner and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

package reminder

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/existflow/prayerlist/internal/logger"
)

// Scheduler fires reminders while the process runs.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
}

// NewScheduler returns a stopped scheduler using the local time zone.
func NewScheduler(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Default()
	}
	return &Scheduler{cron: cron.New(), log: log}
}

// Start registers every entry and starts the cron loop. fire runs on the
// cron goroutine for each occurrence.
func (s *Scheduler) Start(entries []Entry, fire func(Firing)) {
	for _, e := range entries {
		e := e
		s.cron.Schedule(e.Schedule, cron.FuncJob(func() {
			f := e.firing(time.Now())
			s.log.Info("Reminder fired", logger.F("reminder", f.ReminderID), logger.F("spec", e.Spec))
			fire(f)
		}))
	}
	s.cron.Start()
}

// Stop halts the loop and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

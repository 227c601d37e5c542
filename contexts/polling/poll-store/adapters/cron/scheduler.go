package cron

import (
	"context"
	"log/slog"
	"strings"

	"pollkeeper/contexts/polling/poll-store/ports"

	robfigcron "github.com/robfig/cron/v3"
)

// Scheduler runs schedule jobs on standard five-field cron expressions
// (descriptors such as "@daily" are accepted too).
type Scheduler struct {
	cron   *robfigcron.Cron
	logger *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron: robfigcron.New(
			robfigcron.WithParser(robfigcron.NewParser(
				robfigcron.Minute|robfigcron.Hour|robfigcron.Dom|robfigcron.Month|robfigcron.Dow|robfigcron.Descriptor,
			)),
			robfigcron.WithChain(robfigcron.Recover(robfigcron.DiscardLogger)),
		),
		logger: logger,
	}
}

func (s *Scheduler) Add(expression string, job func()) (int, error) {
	id, err := s.cron.AddFunc(strings.TrimSpace(expression), job)
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (s *Scheduler) Remove(id int) {
	s.cron.Remove(robfigcron.EntryID(id))
}

// Len reports how many entries are registered.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.logger.Info("cron scheduler started",
		"event", "poll_store_cron_started",
		"module", "polling/poll-store",
		"layer", "adapter",
	)
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

var _ ports.Scheduler = (*Scheduler)(nil)

package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	application "pollkeeper/contexts/polling/poll-store/application"
	"pollkeeper/contexts/polling/poll-store/application/commands"
	"pollkeeper/contexts/polling/poll-store/application/queries"
	"pollkeeper/contexts/polling/poll-store/domain/entities"
	"pollkeeper/contexts/polling/poll-store/ports"
)

const (
	TopicScheduleTriggered = "poll.schedule.triggered"
	TopicScheduleReposted  = "poll.schedule.reposted"

	defaultFireTimeout = 30 * time.Second
)

// ScheduleRunner mirrors the schedules table into a cron scheduler and
// performs the scheduled poll action when an entry fires.
type ScheduleRunner struct {
	Schedules   queries.ScheduleQueries
	Polls       queries.PollQueries
	PollRepo    commands.PollUseCase
	Scheduler   ports.Scheduler
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	FireTimeout time.Duration
	Disabled    bool
	Logger      *slog.Logger

	mu      sync.Mutex
	entries map[string]registeredSchedule
}

type registeredSchedule struct {
	entryID  int
	schedule entities.Schedule
}

// SyncResult summarizes one Sync pass.
type SyncResult struct {
	Registered int
	Removed    int
	Skipped    int
	Active     int
}

// Sync reconciles scheduler entries with the schedules table: new and
// changed schedules are (re)registered, deleted ones are removed. Schedules
// whose expression the scheduler rejects are logged and skipped.
func (r *ScheduleRunner) Sync(ctx context.Context) (SyncResult, error) {
	logger := application.ResolveLogger(r.Logger)
	if r.Disabled {
		return SyncResult{}, nil
	}
	schedules, err := r.Schedules.GetSchedules(ctx)
	if err != nil {
		logger.Error("schedule sync read failed",
			"event", "poll_store_schedule_sync_read_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return SyncResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]registeredSchedule)
	}

	var result SyncResult
	seen := make(map[string]struct{}, len(schedules))
	for _, schedule := range schedules {
		seen[schedule.PollID] = struct{}{}
		current, ok := r.entries[schedule.PollID]
		if ok && current.schedule == schedule {
			continue
		}
		if ok {
			r.Scheduler.Remove(current.entryID)
			delete(r.entries, schedule.PollID)
			result.Removed++
		}
		entryID, err := r.Scheduler.Add(schedule.CronExp, r.job(schedule))
		if err != nil {
			result.Skipped++
			logger.Warn("schedule rejected by scheduler",
				"event", "poll_store_schedule_rejected",
				"module", application.ModuleName,
				"layer", "worker",
				"poll_id", schedule.PollID,
				"cron_exp", schedule.CronExp,
				"error", err.Error(),
			)
			continue
		}
		r.entries[schedule.PollID] = registeredSchedule{entryID: entryID, schedule: schedule}
		result.Registered++
	}
	for pollID, current := range r.entries {
		if _, ok := seen[pollID]; ok {
			continue
		}
		r.Scheduler.Remove(current.entryID)
		delete(r.entries, pollID)
		result.Removed++
	}
	result.Active = len(r.entries)

	logger.Info("schedule sync completed",
		"event", "poll_store_schedule_sync_completed",
		"module", application.ModuleName,
		"layer", "worker",
		"registered", result.Registered,
		"removed", result.Removed,
		"skipped", result.Skipped,
		"active", result.Active,
	)
	return result, nil
}

// Fire performs the schedule's action once. Schedules outliving their poll
// are ignored.
func (r *ScheduleRunner) Fire(ctx context.Context, schedule entities.Schedule) error {
	logger := application.ResolveLogger(r.Logger)
	poll, found, err := r.Polls.GetPoll(ctx, schedule.PollID)
	if err != nil {
		return err
	}
	if !found {
		logger.Warn("scheduled poll no longer exists",
			"event", "poll_store_schedule_poll_missing",
			"module", application.ModuleName,
			"layer", "worker",
			"poll_id", schedule.PollID,
		)
		return nil
	}

	data := map[string]any{
		"poll_id":    poll.PollID,
		"channel_id": schedule.ChannelID,
		"type":       string(schedule.Type),
		"cron_exp":   schedule.CronExp,
	}
	switch schedule.Type {
	case entities.ScheduleTypeAutoClose:
		if !poll.Closed {
			if err := r.PollRepo.ClosePoll(ctx, poll.PollID); err != nil {
				return err
			}
		}
	case entities.ScheduleTypeRepost:
		derived, err := r.PollRepo.CreatePoll(ctx, commands.CreatePollCommand{
			OwnerID:  poll.OwnerID,
			Question: poll.Question,
			Choices:  poll.Choices,
			ParentID: poll.PollID,
			Admins:   poll.Admins,
			Options:  poll.Options,
		})
		if err != nil {
			return err
		}
		data["derived_poll_id"] = derived.PollID
		if err := r.publish(ctx, TopicScheduleReposted, poll.PollID, data); err != nil {
			return err
		}
	default:
		logger.Warn("schedule type not handled",
			"event", "poll_store_schedule_type_unknown",
			"module", application.ModuleName,
			"layer", "worker",
			"poll_id", poll.PollID,
			"type", string(schedule.Type),
		)
		return nil
	}

	if err := r.publish(ctx, TopicScheduleTriggered, poll.PollID, data); err != nil {
		return err
	}
	logger.Info("schedule fired",
		"event", "poll_store_schedule_fired",
		"module", application.ModuleName,
		"layer", "worker",
		"poll_id", poll.PollID,
		"type", string(schedule.Type),
		"channel_id", schedule.ChannelID,
	)
	return nil
}

// Stop removes every registered entry from the scheduler.
func (r *ScheduleRunner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pollID, current := range r.entries {
		r.Scheduler.Remove(current.entryID)
		delete(r.entries, pollID)
	}
}

func (r *ScheduleRunner) job(schedule entities.Schedule) func() {
	return func() {
		timeout := r.FireTimeout
		if timeout <= 0 {
			timeout = defaultFireTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := r.Fire(ctx, schedule); err != nil {
			application.ResolveLogger(r.Logger).Error("schedule fire failed",
				"event", "poll_store_schedule_fire_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"poll_id", schedule.PollID,
				"type", string(schedule.Type),
				"error", err.Error(),
			)
		}
	}
}

func (r *ScheduleRunner) publish(ctx context.Context, topic string, pollID string, data map[string]any) error {
	if r.Publisher == nil {
		return nil
	}
	eventID, err := r.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}
	envelope, err := commands.NewPollEnvelope(eventID, topic, pollID, now, data)
	if err != nil {
		return err
	}
	return r.Publisher.Publish(ctx, topic, envelope)
}

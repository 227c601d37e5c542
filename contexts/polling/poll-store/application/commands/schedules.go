package commands

import (
	"context"
	"log/slog"
	"strings"

	application "pollkeeper/contexts/polling/poll-store/application"
	"pollkeeper/contexts/polling/poll-store/application/records"
	"pollkeeper/contexts/polling/poll-store/domain/entities"
	domainerrors "pollkeeper/contexts/polling/poll-store/domain/errors"
	"pollkeeper/contexts/polling/poll-store/ports"
)

// ScheduleUseCase writes schedule records keyed by the poll they trigger.
// Cron expressions are stored as given; the scheduler validates them.
type ScheduleUseCase struct {
	Store  ports.RecordStore
	Tables ports.Tables
	Logger *slog.Logger
}

// CreateSchedule upserts the poll's schedule. A failed write is logged and
// reported as ErrScheduleNotCreated with a zero schedule.
func (uc ScheduleUseCase) CreateSchedule(ctx context.Context, schedule entities.Schedule) (entities.Schedule, error) {
	logger := application.ResolveLogger(uc.Logger)
	schedule = entities.Schedule{
		PollID:    strings.TrimSpace(schedule.PollID),
		ChannelID: strings.TrimSpace(schedule.ChannelID),
		CronExp:   strings.TrimSpace(schedule.CronExp),
		Type:      entities.ScheduleType(strings.TrimSpace(string(schedule.Type))),
	}
	if schedule.PollID == "" || schedule.ChannelID == "" || schedule.CronExp == "" || !schedule.Type.Valid() {
		logger.Warn("schedule create validation failed",
			"event", "poll_store_schedule_create_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", schedule.PollID,
			"type", string(schedule.Type),
		)
		return entities.Schedule{}, domainerrors.ErrInvalidScheduleInput
	}
	if err := uc.Store.PutItem(ctx, uc.Tables.Schedules, records.ScheduleToItem(schedule)); err != nil {
		logger.Error("schedule create write failed",
			"event", "poll_store_schedule_create_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", schedule.PollID,
			"error", err.Error(),
		)
		return entities.Schedule{}, domainerrors.ErrScheduleNotCreated
	}
	logger.Info("schedule created",
		"event", "poll_store_schedule_created",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", schedule.PollID,
		"channel_id", schedule.ChannelID,
		"cron_exp", schedule.CronExp,
		"type", string(schedule.Type),
	)
	return schedule, nil
}

func (uc ScheduleUseCase) DeleteSchedule(ctx context.Context, pollID string) error {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return domainerrors.ErrInvalidScheduleInput
	}
	if err := uc.Store.DeleteItem(ctx, uc.Tables.Schedules, pollID); err != nil {
		application.ResolveLogger(uc.Logger).Error("schedule delete failed",
			"event", "poll_store_schedule_delete_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", pollID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

package queries

import (
	"context"
	"sort"
	"strings"

	"pollkeeper/contexts/polling/poll-store/application/records"
	"pollkeeper/contexts/polling/poll-store/domain/entities"
	domainerrors "pollkeeper/contexts/polling/poll-store/domain/errors"
	"pollkeeper/contexts/polling/poll-store/ports"
)

type ScheduleQueries struct {
	Store  ports.RecordStore
	Tables ports.Tables
}

func (q ScheduleQueries) GetSchedule(ctx context.Context, pollID string) (entities.Schedule, bool, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.Schedule{}, false, domainerrors.ErrInvalidScheduleInput
	}
	item, found, err := q.Store.GetItem(ctx, q.Tables.Schedules, pollID)
	if err != nil || !found {
		return entities.Schedule{}, false, err
	}
	schedule, err := records.ScheduleFromItem(item)
	if err != nil {
		return entities.Schedule{}, false, err
	}
	return schedule, true, nil
}

// GetSchedules scans the whole schedules table. Schedule counts are expected
// to stay small; there is no index to narrow the read.
func (q ScheduleQueries) GetSchedules(ctx context.Context) ([]entities.Schedule, error) {
	items, err := q.Store.ScanItems(ctx, q.Tables.Schedules)
	if err != nil {
		return nil, err
	}
	schedules := make([]entities.Schedule, 0, len(items))
	for _, item := range items {
		schedule, err := records.ScheduleFromItem(item)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].PollID < schedules[j].PollID
	})
	return schedules, nil
}

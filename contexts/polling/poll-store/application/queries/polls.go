package queries

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

type PollQueries struct {
	Store  ports.RecordStore
	Tables ports.Tables
	Logger *slog.Logger
}

// GetPoll reports found=false for an unknown id; err is reserved for store
// and decode failures.
func (q PollQueries) GetPoll(ctx context.Context, pollID string) (entities.Poll, bool, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.Poll{}, false, domainerrors.ErrInvalidPollInput
	}
	item, found, err := q.Store.GetItem(ctx, q.Tables.Polls, pollID)
	if err != nil || !found {
		return entities.Poll{}, false, err
	}
	poll, err := records.PollFromItem(item)
	if err != nil {
		application.ResolveLogger(q.Logger).Error("poll record decode failed",
			"event", "poll_store_poll_decode_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", pollID,
			"error", err.Error(),
		)
		return entities.Poll{}, false, err
	}
	return poll, true, nil
}

// GetVotes returns every vote recorded for the poll through the PollId
// index. Order is undefined. A poll without votes yields an empty slice.
func (q PollQueries) GetVotes(ctx context.Context, pollID string) ([]entities.Vote, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return nil, domainerrors.ErrInvalidVoteInput
	}
	items, err := q.Store.QueryItems(ctx, q.Tables.Votes, ports.PollIDIndex, pollID)
	if err != nil {
		return nil, err
	}
	return records.VotesFromItems(items)
}

// Tally counts the poll's votes per choice. Counts are always derived from
// the votes table; votes for labels missing from the poll land in Unknown.
func (q PollQueries) Tally(ctx context.Context, pollID string) (entities.PollTally, bool, error) {
	poll, found, err := q.GetPoll(ctx, pollID)
	if err != nil || !found {
		return entities.PollTally{}, found, err
	}
	votes, err := q.GetVotes(ctx, poll.PollID)
	if err != nil {
		return entities.PollTally{}, false, err
	}

	tally := entities.PollTally{
		Poll:    poll,
		Counts:  make(map[string]int, len(poll.Choices)),
		Unknown: make(map[string]int),
	}
	for _, choice := range poll.Choices {
		tally.Counts[choice] = 0
	}
	voters := make(map[string]struct{})
	for _, vote := range votes {
		if poll.HasChoice(vote.ChoiceID) {
			tally.Counts[vote.ChoiceID]++
		} else {
			tally.Unknown[vote.ChoiceID]++
		}
		voters[vote.UserID] = struct{}{}
		tally.TotalVotes++
	}
	tally.Voters = len(voters)
	return tally, true, nil
}

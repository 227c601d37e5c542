package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "pollkeeper/contexts/polling/poll-store/application"
	"pollkeeper/contexts/polling/poll-store/application/queries"
	"pollkeeper/contexts/polling/poll-store/application/records"
	"pollkeeper/contexts/polling/poll-store/domain/entities"
	domainerrors "pollkeeper/contexts/polling/poll-store/domain/errors"
	"pollkeeper/contexts/polling/poll-store/ports"
)

// CastVoteCommand carries one ballot click. SingleVote comes from the poll's
// options; the ledger does not read the poll and does not check Closed.
type CastVoteCommand struct {
	PollID     string
	ChoiceID   string
	UserID     string
	SingleVote bool
}

// CastResult describes the writes a cast performed.
type CastResult struct {
	Action         entities.CastAction
	Vote           entities.Vote
	RemovedVoteIDs []string
}

// VoteLedger is the only writer of vote records.
type VoteLedger struct {
	Store     ports.RecordStore
	Tables    ports.Tables
	Polls     queries.PollQueries
	PollRepo  PollUseCase
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Publisher ports.EventPublisher
	Metrics   ports.LedgerMetrics
	Logger    *slog.Logger
}

// CastVote applies a user's choice to the poll's vote set.
//
// Multi-choice polls toggle: an existing vote for the choice is deleted,
// otherwise a vote is inserted and other choices are left alone. Single-choice
// polls clear every prior vote of the user in one batch and then insert the
// new vote, so re-selecting the same choice keeps exactly one vote.
//
// The read and the writes are not atomic. Two concurrent casts by the same
// user may both act on the same snapshot.
func (l VoteLedger) CastVote(ctx context.Context, cmd CastVoteCommand) (CastResult, error) {
	logger := application.ResolveLogger(l.Logger)
	started := time.Now()
	pollID := strings.TrimSpace(cmd.PollID)
	choiceID := strings.TrimSpace(cmd.ChoiceID)
	userID := strings.TrimSpace(cmd.UserID)
	if pollID == "" || choiceID == "" || userID == "" {
		logger.Warn("vote cast validation failed",
			"event", "poll_store_vote_cast_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", pollID,
			"user_id", userID,
		)
		return CastResult{}, domainerrors.ErrInvalidVoteInput
	}

	votes, err := l.Polls.GetVotes(ctx, pollID)
	if err != nil {
		l.observeFailure("read")
		logger.Error("vote cast read failed",
			"event", "poll_store_vote_cast_read_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", pollID,
			"user_id", userID,
			"error", err.Error(),
		)
		return CastResult{}, err
	}

	userVotes := make([]entities.Vote, 0)
	var existing *entities.Vote
	for i := range votes {
		if votes[i].UserID != userID {
			continue
		}
		userVotes = append(userVotes, votes[i])
		if existing == nil && votes[i].ChoiceID == choiceID {
			existing = &votes[i]
		}
	}

	var result CastResult
	switch {
	case !cmd.SingleVote && existing != nil:
		if err := l.DeleteVote(ctx, existing.VoteID); err != nil {
			l.observeFailure("delete")
			return CastResult{}, err
		}
		result = CastResult{
			Action:         entities.CastActionRemoved,
			Vote:           *existing,
			RemovedVoteIDs: []string{existing.VoteID},
		}
	default:
		var removed []string
		if cmd.SingleVote && len(userVotes) > 0 {
			removed = make([]string, 0, len(userVotes))
			for _, vote := range userVotes {
				removed = append(removed, vote.VoteID)
			}
			if err := l.DeleteVotes(ctx, removed); err != nil {
				l.observeFailure("delete")
				return CastResult{}, err
			}
		}
		vote, err := l.insertVote(ctx, pollID, choiceID, userID)
		if err != nil {
			l.observeFailure("insert")
			return CastResult{}, err
		}
		result = CastResult{Action: entities.CastActionAdded, Vote: vote, RemovedVoteIDs: removed}
		if len(removed) > 0 {
			result.Action = entities.CastActionReplaced
		}
	}

	if l.Metrics != nil {
		l.Metrics.ObserveCast(string(result.Action), cmd.SingleVote, time.Since(started))
	}
	l.publishCast(ctx, result, cmd.SingleVote)
	logger.Info("vote cast",
		"event", "poll_store_vote_cast",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", pollID,
		"user_id", userID,
		"choice_id", choiceID,
		"single_vote", cmd.SingleVote,
		"action", string(result.Action),
		"vote_id", result.Vote.VoteID,
		"removed_count", len(result.RemovedVoteIDs),
	)
	return result, nil
}

func (l VoteLedger) DeleteVote(ctx context.Context, voteID string) error {
	voteID = strings.TrimSpace(voteID)
	if voteID == "" {
		return domainerrors.ErrInvalidVoteInput
	}
	if err := l.Store.DeleteItem(ctx, l.Tables.Votes, voteID); err != nil {
		application.ResolveLogger(l.Logger).Error("vote delete failed",
			"event", "poll_store_vote_delete_failed",
			"module", application.ModuleName,
			"layer", "application",
			"vote_id", voteID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// DeleteVotes removes the given votes with batch requests of at most
// ports.MaxBatchDeleteSize keys. An empty list is a no-op. Each batch is
// attempted once; the first failing batch stops the loop.
func (l VoteLedger) DeleteVotes(ctx context.Context, voteIDs []string) error {
	for start := 0; start < len(voteIDs); start += ports.MaxBatchDeleteSize {
		end := start + ports.MaxBatchDeleteSize
		if end > len(voteIDs) {
			end = len(voteIDs)
		}
		if err := l.Store.BatchDeleteItems(ctx, l.Tables.Votes, voteIDs[start:end]); err != nil {
			application.ResolveLogger(l.Logger).Error("vote batch delete failed",
				"event", "poll_store_vote_batch_delete_failed",
				"module", application.ModuleName,
				"layer", "application",
				"batch_start", start,
				"batch_size", end-start,
				"error", err.Error(),
			)
			return err
		}
	}
	return nil
}

// PurgePoll deletes the poll record and then every vote that referenced it.
// An interrupted purge can be repeated; it returns the number of votes removed.
func (l VoteLedger) PurgePoll(ctx context.Context, pollID string) (int, error) {
	pollID = strings.TrimSpace(pollID)
	if err := l.PollRepo.DeletePoll(ctx, pollID); err != nil {
		return 0, err
	}
	votes, err := l.Polls.GetVotes(ctx, pollID)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(votes))
	for _, vote := range votes {
		ids = append(ids, vote.VoteID)
	}
	if err := l.DeleteVotes(ctx, ids); err != nil {
		return 0, err
	}
	application.ResolveLogger(l.Logger).Info("poll purged",
		"event", "poll_store_poll_purged",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", pollID,
		"vote_count", len(ids),
	)
	return len(ids), nil
}

func (l VoteLedger) insertVote(ctx context.Context, pollID, choiceID, userID string) (entities.Vote, error) {
	voteID, err := l.IDGen.NewID(ctx)
	if err != nil {
		return entities.Vote{}, err
	}
	vote := entities.Vote{
		VoteID:   voteID,
		PollID:   pollID,
		ChoiceID: choiceID,
		UserID:   userID,
	}
	if err := l.Store.PutItem(ctx, l.Tables.Votes, records.VoteToItem(vote)); err != nil {
		application.ResolveLogger(l.Logger).Error("vote insert failed",
			"event", "poll_store_vote_insert_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", pollID,
			"user_id", userID,
			"error", err.Error(),
		)
		return entities.Vote{}, err
	}
	return vote, nil
}

func (l VoteLedger) observeFailure(stage string) {
	if l.Metrics != nil {
		l.Metrics.ObserveCastFailure(stage)
	}
}

func (l VoteLedger) now() time.Time {
	if l.Clock != nil {
		return l.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

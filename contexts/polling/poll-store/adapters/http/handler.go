package httpadapter

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "pollkeeper/contexts/polling/poll-store/application"
	"pollkeeper/contexts/polling/poll-store/application/commands"
	"pollkeeper/contexts/polling/poll-store/application/queries"
	"pollkeeper/contexts/polling/poll-store/domain/entities"
	domainerrors "pollkeeper/contexts/polling/poll-store/domain/errors"
	httptransport "pollkeeper/contexts/polling/poll-store/transport/http"
)

type Handler struct {
	Polls          commands.PollUseCase
	Votes          commands.VoteLedger
	Schedules      commands.ScheduleUseCase
	PollQueries    queries.PollQueries
	ScheduleReader queries.ScheduleQueries
	Logger         *slog.Logger
}

func (h Handler) CreatePollHandler(ctx context.Context, ownerID string, req httptransport.CreatePollRequest) (httptransport.PollResponse, error) {
	poll, err := h.Polls.CreatePoll(ctx, commands.CreatePollCommand{
		OwnerID:  ownerID,
		Question: req.Question,
		Choices:  req.Choices,
		ParentID: req.ParentID,
		Admins:   req.Admins,
		Options:  entities.PollOptions(req.Options),
	})
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return mapPoll(poll), nil
}

func (h Handler) GetPollHandler(ctx context.Context, pollID string) (httptransport.PollResponse, error) {
	poll, err := h.loadPoll(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return mapPoll(poll), nil
}

func (h Handler) UpdatePollSettingsHandler(ctx context.Context, callerID string, pollID string, req httptransport.UpdatePollSettingsRequest) error {
	if _, err := h.authorizeAdmin(ctx, callerID, pollID); err != nil {
		return err
	}
	return h.Polls.UpdateAdminsAndOptions(ctx, pollID, req.Admins, entities.PollOptions(req.Options))
}

func (h Handler) ClosePollHandler(ctx context.Context, callerID string, pollID string) error {
	if _, err := h.authorizeAdmin(ctx, callerID, pollID); err != nil {
		return err
	}
	return h.Polls.ClosePoll(ctx, pollID)
}

func (h Handler) DeletePollHandler(ctx context.Context, callerID string, pollID string, purge bool) (httptransport.DeletePollResponse, error) {
	if _, err := h.authorizeAdmin(ctx, callerID, pollID); err != nil {
		return httptransport.DeletePollResponse{}, err
	}
	response := httptransport.DeletePollResponse{PollID: strings.TrimSpace(pollID), Purged: purge}
	if !purge {
		return response, h.Polls.DeletePoll(ctx, pollID)
	}
	removed, err := h.Votes.PurgePoll(ctx, pollID)
	if err != nil {
		return httptransport.DeletePollResponse{}, err
	}
	response.VotesRemoved = removed
	return response, nil
}

// CastVoteHandler performs the caller-side checks the ledger leaves out:
// the poll must exist and be open, the choice must be on the poll, and the
// single-vote mode comes from the poll's options.
func (h Handler) CastVoteHandler(ctx context.Context, userID string, pollID string, req httptransport.CastVoteRequest) (httptransport.CastVoteResponse, error) {
	poll, err := h.loadPoll(ctx, pollID)
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	if poll.Closed {
		return httptransport.CastVoteResponse{}, domainerrors.ErrPollClosed
	}
	choiceID := strings.TrimSpace(req.ChoiceID)
	if len(poll.Choices) > 0 && !poll.HasChoice(choiceID) {
		return httptransport.CastVoteResponse{}, domainerrors.ErrInvalidVoteInput
	}
	singleVote := poll.Options.SingleVote()
	result, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		PollID:     poll.PollID,
		ChoiceID:   choiceID,
		UserID:     userID,
		SingleVote: singleVote,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	removed := result.RemovedVoteIDs
	if removed == nil {
		removed = []string{}
	}
	return httptransport.CastVoteResponse{
		Action:         string(result.Action),
		Vote:           mapVote(result.Vote),
		RemovedVoteIDs: removed,
		SingleVote:     singleVote,
	}, nil
}

func (h Handler) DeleteVoteHandler(ctx context.Context, voteID string) error {
	return h.Votes.DeleteVote(ctx, voteID)
}

// ListVotesHandler lists a poll's votes. Votes of a missing poll are still
// listed; user ids are blanked when the poll has anonymousResults set.
func (h Handler) ListVotesHandler(ctx context.Context, pollID string) (httptransport.VoteListResponse, error) {
	poll, _, err := h.PollQueries.GetPoll(ctx, pollID)
	if err != nil {
		return httptransport.VoteListResponse{}, err
	}
	votes, err := h.PollQueries.GetVotes(ctx, pollID)
	if err != nil {
		return httptransport.VoteListResponse{}, err
	}
	anonymous := poll.Options.AnonymousResults()
	items := make([]httptransport.VoteResponse, 0, len(votes))
	for _, vote := range votes {
		item := mapVote(vote)
		if anonymous {
			item.UserID = ""
		}
		items = append(items, item)
	}
	return httptransport.VoteListResponse{
		PollID: strings.TrimSpace(pollID),
		Items:  items,
	}, nil
}

func (h Handler) PollResultsHandler(ctx context.Context, pollID string) (httptransport.PollResultsResponse, error) {
	tally, found, err := h.PollQueries.Tally(ctx, pollID)
	if err != nil {
		return httptransport.PollResultsResponse{}, err
	}
	if !found {
		return httptransport.PollResultsResponse{}, domainerrors.ErrPollNotFound
	}
	if !tally.Poll.Closed && tally.Poll.Options.HidesLiveResults() {
		items := make([]httptransport.ChoiceCount, 0, len(tally.Poll.Choices))
		for _, choice := range tally.Poll.Choices {
			items = append(items, httptransport.ChoiceCount{ChoiceID: choice})
		}
		return httptransport.PollResultsResponse{
			PollID:   tally.Poll.PollID,
			Question: tally.Poll.Question,
			Items:    items,
			Hidden:   true,
		}, nil
	}
	items := make([]httptransport.ChoiceCount, 0, len(tally.Poll.Choices))
	for _, choice := range tally.Poll.Choices {
		items = append(items, httptransport.ChoiceCount{ChoiceID: choice, Votes: tally.Counts[choice]})
	}
	var unknown []httptransport.ChoiceCount
	for choice, count := range tally.Unknown {
		unknown = append(unknown, httptransport.ChoiceCount{ChoiceID: choice, Votes: count})
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i].ChoiceID < unknown[j].ChoiceID })
	return httptransport.PollResultsResponse{
		PollID:     tally.Poll.PollID,
		Question:   tally.Poll.Question,
		Closed:     tally.Poll.Closed,
		Items:      items,
		Unknown:    unknown,
		TotalVotes: tally.TotalVotes,
		Voters:     tally.Voters,
	}, nil
}

func (h Handler) CreateScheduleHandler(ctx context.Context, req httptransport.CreateScheduleRequest) (httptransport.ScheduleResponse, error) {
	schedule, err := h.Schedules.CreateSchedule(ctx, entities.Schedule{
		PollID:    req.PollID,
		ChannelID: req.ChannelID,
		CronExp:   req.CronExp,
		Type:      entities.ScheduleType(strings.TrimSpace(req.Type)),
	})
	if err != nil {
		return httptransport.ScheduleResponse{}, err
	}
	return mapSchedule(schedule), nil
}

func (h Handler) GetScheduleHandler(ctx context.Context, pollID string) (httptransport.ScheduleResponse, bool, error) {
	schedule, found, err := h.ScheduleReader.GetSchedule(ctx, pollID)
	if err != nil || !found {
		return httptransport.ScheduleResponse{}, found, err
	}
	return mapSchedule(schedule), true, nil
}

func (h Handler) ListSchedulesHandler(ctx context.Context) (httptransport.ScheduleListResponse, error) {
	schedules, err := h.ScheduleReader.GetSchedules(ctx)
	if err != nil {
		return httptransport.ScheduleListResponse{}, err
	}
	items := make([]httptransport.ScheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		items = append(items, mapSchedule(schedule))
	}
	return httptransport.ScheduleListResponse{Items: items}, nil
}

func (h Handler) DeleteScheduleHandler(ctx context.Context, pollID string) error {
	return h.Schedules.DeleteSchedule(ctx, pollID)
}

// authorizeAdmin loads the poll and checks that callerID owns or administers it.
func (h Handler) authorizeAdmin(ctx context.Context, callerID string, pollID string) (entities.Poll, error) {
	poll, err := h.loadPoll(ctx, pollID)
	if err != nil {
		return entities.Poll{}, err
	}
	if !poll.IsAdmin(strings.TrimSpace(callerID)) {
		application.ResolveLogger(h.Logger).Warn("poll admin check failed",
			"event", "poll_store_admin_check_failed",
			"module", application.ModuleName,
			"layer", "adapter",
			"poll_id", poll.PollID,
			"caller_id", strings.TrimSpace(callerID),
		)
		return entities.Poll{}, domainerrors.ErrNotPollAdmin
	}
	return poll, nil
}

func (h Handler) loadPoll(ctx context.Context, pollID string) (entities.Poll, error) {
	poll, found, err := h.PollQueries.GetPoll(ctx, pollID)
	if err != nil {
		return entities.Poll{}, err
	}
	if !found {
		return entities.Poll{}, domainerrors.ErrPollNotFound
	}
	return poll, nil
}

func mapPoll(poll entities.Poll) httptransport.PollResponse {
	response := httptransport.PollResponse{
		PollID:   poll.PollID,
		OwnerID:  poll.OwnerID,
		Question: poll.Question,
		Choices:  nonNil(poll.Choices),
		Closed:   poll.Closed,
		ParentID: poll.ParentID,
		Admins:   nonNil(poll.Admins),
		Options:  map[string]any(poll.Options),
	}
	if response.Options == nil {
		response.Options = map[string]any{}
	}
	if !poll.CreatedAt.IsZero() {
		response.CreatedAt = poll.CreatedAt.UTC().Format(time.RFC3339)
	}
	return response
}

func mapVote(vote entities.Vote) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		VoteID:   vote.VoteID,
		PollID:   vote.PollID,
		ChoiceID: vote.ChoiceID,
		UserID:   vote.UserID,
	}
}

func mapSchedule(schedule entities.Schedule) httptransport.ScheduleResponse {
	return httptransport.ScheduleResponse{
		PollID:    schedule.PollID,
		ChannelID: schedule.ChannelID,
		CronExp:   schedule.CronExp,
		Type:      string(schedule.Type),
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

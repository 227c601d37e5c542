package commands

import (
	"context"
	"encoding/json"
	"time"

	application "pollkeeper/contexts/polling/poll-store/application"
	"pollkeeper/contexts/polling/poll-store/domain/entities"
	"pollkeeper/contexts/polling/poll-store/ports"
)

const (
	TopicVoteAdded    = "poll.vote.added"
	TopicVoteRemoved  = "poll.vote.removed"
	TopicVoteReplaced = "poll.vote.replaced"

	sourceService = "poll-store"
)

// NewPollEnvelope wraps data in the canonical event envelope, partitioned by poll.
func NewPollEnvelope(eventID, eventType, pollID string, occurredAt time.Time, data map[string]any) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "data.poll_id",
		PartitionKey:     pollID,
		Data:             payload,
	}, nil
}

// publishCast emits the cast outcome. Store writes already happened, so a
// publish failure is only logged.
func (l VoteLedger) publishCast(ctx context.Context, result CastResult, singleVote bool) {
	if l.Publisher == nil {
		return
	}
	logger := application.ResolveLogger(l.Logger)
	topic := TopicVoteAdded
	switch result.Action {
	case entities.CastActionRemoved:
		topic = TopicVoteRemoved
	case entities.CastActionReplaced:
		topic = TopicVoteReplaced
	}
	eventID, err := l.IDGen.NewID(ctx)
	if err != nil {
		logger.Warn("vote event id generation failed",
			"event", "poll_store_vote_event_id_failed",
			"module", application.ModuleName,
			"layer", "application",
			"error", err.Error(),
		)
		return
	}
	envelope, err := NewPollEnvelope(eventID, topic, result.Vote.PollID, l.now(), map[string]any{
		"poll_id":          result.Vote.PollID,
		"vote_id":          result.Vote.VoteID,
		"choice_id":        result.Vote.ChoiceID,
		"user_id":          result.Vote.UserID,
		"single_vote":      singleVote,
		"removed_vote_ids": result.RemovedVoteIDs,
	})
	if err == nil {
		err = l.Publisher.Publish(ctx, topic, envelope)
	}
	if err != nil {
		logger.Warn("vote event publish failed",
			"event", "poll_store_vote_event_publish_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", result.Vote.PollID,
			"topic", topic,
			"error", err.Error(),
		)
	}
}

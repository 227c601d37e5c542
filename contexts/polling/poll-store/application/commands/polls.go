package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "pollkeeper/contexts/polling/poll-store/application"
	"pollkeeper/contexts/polling/poll-store/application/records"
	"pollkeeper/contexts/polling/poll-store/domain/entities"
	domainerrors "pollkeeper/contexts/polling/poll-store/domain/errors"
	"pollkeeper/contexts/polling/poll-store/ports"
)

// CreatePollCommand is the write-model input for poll creation. Admins and
// Options are optional; derived polls copy them from their parent.
type CreatePollCommand struct {
	OwnerID  string
	Question string
	Choices  []string
	ParentID string
	Admins   []string
	Options  entities.PollOptions
}

// PollUseCase owns the poll lifecycle. It is the only writer of poll fields.
type PollUseCase struct {
	Store  ports.RecordStore
	Tables ports.Tables
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// CreatePoll writes a new open poll under a fresh id. A failed write is
// logged and reported as ErrPollNotCreated with a zero poll; it is not retried.
func (uc PollUseCase) CreatePoll(ctx context.Context, cmd CreatePollCommand) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)
	choices := trimmedNonEmpty(cmd.Choices)
	if strings.TrimSpace(cmd.OwnerID) == "" || strings.TrimSpace(cmd.Question) == "" || len(choices) == 0 || hasDuplicate(choices) {
		logger.Warn("poll create validation failed",
			"event", "poll_store_poll_create_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"owner_id", strings.TrimSpace(cmd.OwnerID),
			"choice_count", len(choices),
		)
		return entities.Poll{}, domainerrors.ErrInvalidPollInput
	}

	pollID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		logger.Error("poll id generation failed",
			"event", "poll_store_poll_create_id_failed",
			"module", application.ModuleName,
			"layer", "application",
			"owner_id", strings.TrimSpace(cmd.OwnerID),
			"error", err.Error(),
		)
		return entities.Poll{}, domainerrors.ErrPollNotCreated
	}
	options := cmd.Options
	if options == nil {
		options = entities.PollOptions{}
	}
	poll := entities.Poll{
		PollID:    pollID,
		OwnerID:   strings.TrimSpace(cmd.OwnerID),
		Question:  strings.TrimSpace(cmd.Question),
		Choices:   choices,
		Closed:    false,
		ParentID:  strings.TrimSpace(cmd.ParentID),
		CreatedAt: uc.now(),
		Admins:    trimmedNonEmpty(cmd.Admins),
		Options:   options,
	}
	if err := uc.Store.PutItem(ctx, uc.Tables.Polls, records.PollToItem(poll)); err != nil {
		logger.Error("poll create write failed",
			"event", "poll_store_poll_create_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", poll.PollID,
			"owner_id", poll.OwnerID,
			"error", err.Error(),
		)
		return entities.Poll{}, domainerrors.ErrPollNotCreated
	}

	logger.Info("poll created",
		"event", "poll_store_poll_created",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", poll.PollID,
		"owner_id", poll.OwnerID,
		"parent_id", poll.ParentID,
		"choice_count", len(poll.Choices),
	)
	return poll, nil
}

// UpdateAdminsAndOptions replaces the admin set and the options bag and
// touches nothing else. The poll is not looked up first: an unknown id
// leaves a partial record holding only these attributes.
func (uc PollUseCase) UpdateAdminsAndOptions(
	ctx context.Context,
	pollID string,
	admins []string,
	options entities.PollOptions,
) error {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return domainerrors.ErrInvalidPollInput
	}
	err := uc.Store.UpdateItem(ctx, uc.Tables.Polls, pollID, ports.Item{
		records.AttrAdmins:  trimmedNonEmpty(admins),
		records.AttrOptions: records.OptionsToAttribute(options),
	})
	if err != nil {
		return uc.logWriteError("poll_store_poll_settings_update_failed", err, pollID)
	}
	application.ResolveLogger(uc.Logger).Info("poll settings updated",
		"event", "poll_store_poll_settings_updated",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", pollID,
		"admin_count", len(admins),
	)
	return nil
}

// ClosePoll sets Closed unconditionally, so closing twice is harmless.
func (uc PollUseCase) ClosePoll(ctx context.Context, pollID string) error {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return domainerrors.ErrInvalidPollInput
	}
	if err := uc.Store.UpdateItem(ctx, uc.Tables.Polls, pollID, ports.Item{records.AttrClosed: true}); err != nil {
		return uc.logWriteError("poll_store_poll_close_failed", err, pollID)
	}
	application.ResolveLogger(uc.Logger).Info("poll closed",
		"event", "poll_store_poll_closed",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", pollID,
	)
	return nil
}

// DeletePoll removes the poll record only. Its votes stay in the votes
// table; use VoteLedger.PurgePoll to remove both.
func (uc PollUseCase) DeletePoll(ctx context.Context, pollID string) error {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return domainerrors.ErrInvalidPollInput
	}
	if err := uc.Store.DeleteItem(ctx, uc.Tables.Polls, pollID); err != nil {
		return uc.logWriteError("poll_store_poll_delete_failed", err, pollID)
	}
	application.ResolveLogger(uc.Logger).Info("poll deleted",
		"event", "poll_store_poll_deleted",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", pollID,
	)
	return nil
}

func (uc PollUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc PollUseCase) logWriteError(event string, err error, pollID string) error {
	application.ResolveLogger(uc.Logger).Error("poll write failed",
		"event", event,
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", pollID,
		"error", err.Error(),
	)
	return err
}

func trimmedNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}

// hasDuplicate reports a repeated label. Votes name choices by label, so
// two equal labels could not be told apart.
func hasDuplicate(values []string) bool {
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			return true
		}
		seen[value] = struct{}{}
	}
	return false
}

// Package records maps poll-store entities to and from store items.
//
// Decoders accept both the native Go shapes written by the in-memory store
// and the shapes produced by a JSON round trip ([]any, float64, RFC3339
// strings), so every RecordStore adapter can share one codec.
package records

import (
	"fmt"
	"strings"
	"time"

	"pollkeeper/contexts/polling/poll-store/domain/entities"
	domainerrors "pollkeeper/contexts/polling/poll-store/domain/errors"
	"pollkeeper/contexts/polling/poll-store/ports"
)

// Poll attributes.
const (
	AttrOwnerID   = "OwnerId"
	AttrQuestion  = "Question"
	AttrChoices   = "Choices"
	AttrClosed    = "Closed"
	AttrParentID  = "ParentId"
	AttrCreatedAt = "CreatedAt"
	AttrAdmins    = "Admins"
	AttrOptions   = "Options"
)

// Vote attributes.
const (
	AttrChoiceID = "ChoiceId"
	AttrUserID   = "UserId"
)

// Schedule attributes.
const (
	AttrChannelID = "ChannelId"
	AttrCronExp   = "CronExp"
	AttrType      = "Type"
)

func PollToItem(poll entities.Poll) ports.Item {
	item := ports.Item{
		ports.AttrID:  poll.PollID,
		AttrOwnerID:   poll.OwnerID,
		AttrQuestion:  poll.Question,
		AttrChoices:   append([]string(nil), poll.Choices...),
		AttrClosed:    poll.Closed,
		AttrCreatedAt: poll.CreatedAt.UTC().Format(time.RFC3339Nano),
		AttrAdmins:    append([]string{}, poll.Admins...),
		AttrOptions:   OptionsToAttribute(poll.Options),
	}
	if poll.ParentID != "" {
		item[AttrParentID] = poll.ParentID
	}
	return item
}

func PollFromItem(item ports.Item) (entities.Poll, error) {
	if item.Key() == "" {
		return entities.Poll{}, fmt.Errorf("%w: poll item without %s", domainerrors.ErrMalformedRecord, ports.AttrID)
	}
	createdAt, err := timeAttr(item, AttrCreatedAt)
	if err != nil {
		return entities.Poll{}, err
	}
	choices, err := stringListAttr(item, AttrChoices)
	if err != nil {
		return entities.Poll{}, err
	}
	admins, err := stringListAttr(item, AttrAdmins)
	if err != nil {
		return entities.Poll{}, err
	}
	options, err := optionsAttr(item, AttrOptions)
	if err != nil {
		return entities.Poll{}, err
	}
	return entities.Poll{
		PollID:    item.Key(),
		OwnerID:   stringAttr(item, AttrOwnerID),
		Question:  stringAttr(item, AttrQuestion),
		Choices:   choices,
		Closed:    boolAttr(item, AttrClosed),
		ParentID:  stringAttr(item, AttrParentID),
		CreatedAt: createdAt,
		Admins:    admins,
		Options:   options,
	}, nil
}

func VoteToItem(vote entities.Vote) ports.Item {
	return ports.Item{
		ports.AttrID:     vote.VoteID,
		ports.AttrPollID: vote.PollID,
		AttrChoiceID:     vote.ChoiceID,
		AttrUserID:       vote.UserID,
	}
}

func VoteFromItem(item ports.Item) (entities.Vote, error) {
	if item.Key() == "" {
		return entities.Vote{}, fmt.Errorf("%w: vote item without %s", domainerrors.ErrMalformedRecord, ports.AttrID)
	}
	return entities.Vote{
		VoteID:   item.Key(),
		PollID:   stringAttr(item, ports.AttrPollID),
		ChoiceID: stringAttr(item, AttrChoiceID),
		UserID:   stringAttr(item, AttrUserID),
	}, nil
}

func VotesFromItems(items []ports.Item) ([]entities.Vote, error) {
	votes := make([]entities.Vote, 0, len(items))
	for _, item := range items {
		vote, err := VoteFromItem(item)
		if err != nil {
			return nil, err
		}
		votes = append(votes, vote)
	}
	return votes, nil
}

func ScheduleToItem(schedule entities.Schedule) ports.Item {
	return ports.Item{
		ports.AttrID:  schedule.PollID,
		AttrChannelID: schedule.ChannelID,
		AttrCronExp:   schedule.CronExp,
		AttrType:      string(schedule.Type),
	}
}

func ScheduleFromItem(item ports.Item) (entities.Schedule, error) {
	if item.Key() == "" {
		return entities.Schedule{}, fmt.Errorf("%w: schedule item without %s", domainerrors.ErrMalformedRecord, ports.AttrID)
	}
	return entities.Schedule{
		PollID:    item.Key(),
		ChannelID: stringAttr(item, AttrChannelID),
		CronExp:   stringAttr(item, AttrCronExp),
		Type:      entities.ScheduleType(stringAttr(item, AttrType)),
	}, nil
}

// OptionsToAttribute copies the options bag into its stored form.
func OptionsToAttribute(options entities.PollOptions) map[string]any {
	out := make(map[string]any, len(options))
	for key, value := range options {
		out[key] = value
	}
	return out
}

func stringAttr(item ports.Item, name string) string {
	value, _ := item[name].(string)
	return value
}

func boolAttr(item ports.Item, name string) bool {
	switch value := item[name].(type) {
	case bool:
		return value
	case string:
		return strings.EqualFold(value, "true")
	default:
		return false
	}
}

func stringListAttr(item ports.Item, name string) ([]string, error) {
	switch value := item[name].(type) {
	case nil:
		return []string{}, nil
	case []string:
		return append([]string{}, value...), nil
	case []any:
		out := make([]string, 0, len(value))
		for _, element := range value {
			text, ok := element.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s holds %T", domainerrors.ErrMalformedRecord, name, element)
			}
			out = append(out, text)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s holds %T", domainerrors.ErrMalformedRecord, name, value)
	}
}

func optionsAttr(item ports.Item, name string) (entities.PollOptions, error) {
	switch value := item[name].(type) {
	case nil:
		return entities.PollOptions{}, nil
	case map[string]any:
		out := make(entities.PollOptions, len(value))
		for key, option := range value {
			out[key] = option
		}
		return out, nil
	case entities.PollOptions:
		out := make(entities.PollOptions, len(value))
		for key, option := range value {
			out[key] = option
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s holds %T", domainerrors.ErrMalformedRecord, name, value)
	}
}

func timeAttr(item ports.Item, name string) (time.Time, error) {
	switch value := item[name].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return value.UTC(), nil
	case string:
		if value == "" {
			return time.Time{}, nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %v", domainerrors.ErrMalformedRecord, name, err)
		}
		return parsed.UTC(), nil
	case float64:
		return time.UnixMilli(int64(value)).UTC(), nil
	case int64:
		return time.UnixMilli(value).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s holds %T", domainerrors.ErrMalformedRecord, name, value)
	}
}

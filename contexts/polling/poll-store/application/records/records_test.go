package records

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pollkeeper/contexts/polling/poll-store/domain/entities"
	domainerrors "pollkeeper/contexts/polling/poll-store/domain/errors"
	"pollkeeper/contexts/polling/poll-store/ports"
)

func TestPollItemSurvivesJSONRoundTrip(t *testing.T) {
	poll := entities.Poll{
		PollID:    "p1",
		OwnerID:   "owner",
		Question:  "Q",
		Choices:   []string{"A", "B"},
		Closed:    true,
		ParentID:  "p0",
		CreatedAt: time.Date(2026, 5, 6, 7, 8, 9, 123, time.UTC),
		Admins:    []string{"admin"},
		Options:   entities.PollOptions{entities.OptionSingleVote: true},
	}

	raw, err := json.Marshal(PollToItem(poll))
	if err != nil {
		t.Fatalf("marshal item: %v", err)
	}
	var item ports.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		t.Fatalf("unmarshal item: %v", err)
	}

	decoded, err := PollFromItem(item)
	if err != nil {
		t.Fatalf("decode poll: %v", err)
	}
	if decoded.PollID != "p1" || decoded.ParentID != "p0" || !decoded.Closed {
		t.Fatalf("unexpected poll %+v", decoded)
	}
	if len(decoded.Choices) != 2 || decoded.Choices[1] != "B" || len(decoded.Admins) != 1 {
		t.Fatalf("unexpected lists %+v", decoded)
	}
	if !decoded.CreatedAt.Equal(poll.CreatedAt) {
		t.Fatalf("expected createdAt %s, got %s", poll.CreatedAt, decoded.CreatedAt)
	}
	if !decoded.Options.SingleVote() {
		t.Fatalf("expected singleVote option, got %v", decoded.Options)
	}
}

func TestPollItemOmitsEmptyParent(t *testing.T) {
	item := PollToItem(entities.Poll{PollID: "p1"})
	if _, ok := item[AttrParentID]; ok {
		t.Fatalf("expected no ParentId attribute, got %v", item)
	}
}

func TestDecodersRejectMalformedItems(t *testing.T) {
	cases := map[string]func() error{
		"poll without id": func() error {
			_, err := PollFromItem(ports.Item{AttrQuestion: "Q"})
			return err
		},
		"choices of numbers": func() error {
			_, err := PollFromItem(ports.Item{ports.AttrID: "p", AttrChoices: []any{1.0}})
			return err
		},
		"bad timestamp": func() error {
			_, err := PollFromItem(ports.Item{ports.AttrID: "p", AttrCreatedAt: "yesterday"})
			return err
		},
		"vote without id": func() error {
			_, err := VoteFromItem(ports.Item{ports.AttrPollID: "p"})
			return err
		},
		"schedule without id": func() error {
			_, err := ScheduleFromItem(ports.Item{AttrCronExp: "@daily"})
			return err
		},
	}
	for name, decode := range cases {
		if err := decode(); !errors.Is(err, domainerrors.ErrMalformedRecord) {
			t.Fatalf("%s: expected ErrMalformedRecord, got %v", name, err)
		}
	}
}

func TestVoteAndScheduleItems(t *testing.T) {
	vote := entities.Vote{VoteID: "v1", PollID: "p1", ChoiceID: "A", UserID: "u1"}
	item := VoteToItem(vote)
	if item[ports.AttrPollID] != "p1" {
		t.Fatalf("expected PollId attribute for the index, got %v", item)
	}
	decoded, err := VoteFromItem(item)
	if err != nil || decoded != vote {
		t.Fatalf("expected %+v, got %+v (%v)", vote, decoded, err)
	}

	schedule := entities.Schedule{PollID: "p1", ChannelID: "c", CronExp: "@daily", Type: entities.ScheduleTypeAutoClose}
	gotSchedule, err := ScheduleFromItem(ScheduleToItem(schedule))
	if err != nil || gotSchedule != schedule {
		t.Fatalf("expected %+v, got %+v (%v)", schedule, gotSchedule, err)
	}
}

func TestClosedAcceptsStringForm(t *testing.T) {
	poll, err := PollFromItem(ports.Item{ports.AttrID: "p", AttrClosed: "TRUE"})
	if err != nil {
		t.Fatalf("decode poll: %v", err)
	}
	if !poll.Closed {
		t.Fatalf("expected string true to decode as closed")
	}
}

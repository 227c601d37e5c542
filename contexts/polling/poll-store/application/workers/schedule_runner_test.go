package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"pollkeeper/contexts/polling/poll-store/adapters/memory"
	"pollkeeper/contexts/polling/poll-store/adapters/system"
	"pollkeeper/contexts/polling/poll-store/application/commands"
	"pollkeeper/contexts/polling/poll-store/application/queries"
	"pollkeeper/contexts/polling/poll-store/application/workers"
	"pollkeeper/contexts/polling/poll-store/domain/entities"
	"pollkeeper/contexts/polling/poll-store/ports"
)

type fakeScheduler struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]func()
	exprs  map[int]string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{jobs: map[int]func(){}, exprs: map[int]string{}}
}

func (s *fakeScheduler) Add(expression string, job func()) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expression == "bogus" {
		return 0, errors.New("unparseable expression")
	}
	s.nextID++
	s.jobs[s.nextID] = job
	s.exprs[s.nextID] = expression
	return s.nextID, nil
}

func (s *fakeScheduler) Remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	delete(s.exprs, id)
}

func (s *fakeScheduler) runAll() {
	s.mu.Lock()
	jobs := make([]func(), 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.Unlock()
	for _, job := range jobs {
		job()
	}
}

type recordedTopics struct {
	mu     sync.Mutex
	topics []string
	events []ports.EventEnvelope
}

func (r *recordedTopics) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, event)
	return nil
}

type runnerFixture struct {
	store     *memory.Store
	tables    ports.Tables
	polls     commands.PollUseCase
	schedules commands.ScheduleUseCase
	reader    queries.PollQueries
	scheduler *fakeScheduler
	publisher *recordedTopics
	runner    *workers.ScheduleRunner
}

func newRunnerFixture() *runnerFixture {
	tables := ports.NewTables("polls")
	store := memory.NewStore(tables)
	reader := queries.PollQueries{Store: store, Tables: tables}
	polls := commands.PollUseCase{
		Store: store, Tables: tables, Clock: system.SystemClock{}, IDGen: system.UUIDGenerator{},
	}
	scheduler := newFakeScheduler()
	publisher := &recordedTopics{}
	return &runnerFixture{
		store:     store,
		tables:    tables,
		polls:     polls,
		schedules: commands.ScheduleUseCase{Store: store, Tables: tables},
		reader:    reader,
		scheduler: scheduler,
		publisher: publisher,
		runner: &workers.ScheduleRunner{
			Schedules: queries.ScheduleQueries{Store: store, Tables: tables},
			Polls:     reader,
			PollRepo:  polls,
			Scheduler: scheduler,
			Publisher: publisher,
			Clock:     system.SystemClock{},
			IDGen:     system.UUIDGenerator{},
		},
	}
}

func (f *runnerFixture) createPoll(t *testing.T) entities.Poll {
	t.Helper()
	poll, err := f.polls.CreatePoll(context.Background(), commands.CreatePollCommand{
		OwnerID:  "owner",
		Question: "Standup time?",
		Choices:  []string{"9:00", "10:00"},
		Admins:   []string{"admin"},
		Options:  entities.PollOptions{entities.OptionSingleVote: true},
	})
	if err != nil {
		t.Fatalf("create poll: %v", err)
	}
	return poll
}

func (f *runnerFixture) schedule(t *testing.T, pollID, cronExp string, kind entities.ScheduleType) {
	t.Helper()
	if _, err := f.schedules.CreateSchedule(context.Background(), entities.Schedule{
		PollID: pollID, ChannelID: "channel-1", CronExp: cronExp, Type: kind,
	}); err != nil {
		t.Fatalf("create schedule: %v", err)
	}
}

func TestSyncRegistersChangesAndRemoves(t *testing.T) {
	f := newRunnerFixture()
	ctx := context.Background()
	f.schedule(t, "p1", "@daily", entities.ScheduleTypeRepost)
	f.schedule(t, "p2", "@hourly", entities.ScheduleTypeAutoClose)
	f.schedule(t, "p3", "bogus", entities.ScheduleTypeRepost)

	result, err := f.runner.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Registered != 2 || result.Skipped != 1 || result.Active != 2 {
		t.Fatalf("unexpected first sync %+v", result)
	}

	result, err = f.runner.Sync(ctx)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.Registered != 0 || result.Removed != 0 || result.Active != 2 {
		t.Fatalf("expected unchanged schedules to stay registered, got %+v", result)
	}

	f.schedule(t, "p1", "@weekly", entities.ScheduleTypeRepost)
	if err := f.schedules.DeleteSchedule(ctx, "p2"); err != nil {
		t.Fatalf("delete schedule: %v", err)
	}
	result, err = f.runner.Sync(ctx)
	if err != nil {
		t.Fatalf("third sync: %v", err)
	}
	if result.Registered != 1 || result.Removed != 2 || result.Active != 1 {
		t.Fatalf("unexpected third sync %+v", result)
	}
	if len(f.scheduler.exprs) != 1 {
		t.Fatalf("expected one scheduler entry, got %v", f.scheduler.exprs)
	}
	for _, expr := range f.scheduler.exprs {
		if expr != "@weekly" {
			t.Fatalf("expected updated expression, got %s", expr)
		}
	}

	f.runner.Stop()
	if len(f.scheduler.jobs) != 0 {
		t.Fatalf("expected stop to clear scheduler entries")
	}
}

func TestSyncDisabledDoesNothing(t *testing.T) {
	f := newRunnerFixture()
	f.schedule(t, "p1", "@daily", entities.ScheduleTypeRepost)
	f.runner.Disabled = true

	result, err := f.runner.Sync(context.Background())
	if err != nil || result.Active != 0 || len(f.scheduler.jobs) != 0 {
		t.Fatalf("expected disabled runner to skip sync, got %+v %v", result, err)
	}
}

func TestAutoCloseScheduleClosesPoll(t *testing.T) {
	f := newRunnerFixture()
	poll := f.createPoll(t)
	f.schedule(t, poll.PollID, "@hourly", entities.ScheduleTypeAutoClose)
	if _, err := f.runner.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	f.scheduler.runAll()

	stored, _, err := f.reader.GetPoll(context.Background(), poll.PollID)
	if err != nil {
		t.Fatalf("get poll: %v", err)
	}
	if !stored.Closed {
		t.Fatalf("expected poll closed by schedule")
	}
	if len(f.publisher.topics) != 1 || f.publisher.topics[0] != workers.TopicScheduleTriggered {
		t.Fatalf("expected one triggered event, got %v", f.publisher.topics)
	}
}

func TestRepostScheduleCreatesDerivedPoll(t *testing.T) {
	f := newRunnerFixture()
	poll := f.createPoll(t)
	schedule := entities.Schedule{
		PollID: poll.PollID, ChannelID: "channel-1", CronExp: "@daily", Type: entities.ScheduleTypeRepost,
	}

	if err := f.runner.Fire(context.Background(), schedule); err != nil {
		t.Fatalf("fire: %v", err)
	}

	items, err := f.store.ScanItems(context.Background(), f.tables.Polls)
	if err != nil {
		t.Fatalf("scan polls: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected source and derived poll, got %d", len(items))
	}
	var derived entities.Poll
	for _, item := range items {
		if item.Key() == poll.PollID {
			continue
		}
		found, ok, err := f.reader.GetPoll(context.Background(), item.Key())
		if err != nil || !ok {
			t.Fatalf("read derived poll: %v", err)
		}
		derived = found
	}
	if derived.ParentID != poll.PollID || derived.Question != poll.Question || derived.Closed {
		t.Fatalf("unexpected derived poll %+v", derived)
	}
	if len(derived.Choices) != 2 || !derived.Options.SingleVote() || !derived.IsAdmin("admin") {
		t.Fatalf("expected derived poll to copy choices, options and admins, got %+v", derived)
	}

	want := []string{workers.TopicScheduleReposted, workers.TopicScheduleTriggered}
	if len(f.publisher.topics) != 2 || f.publisher.topics[0] != want[0] || f.publisher.topics[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, f.publisher.topics)
	}
	var data map[string]any
	if err := json.Unmarshal(f.publisher.events[0].Data, &data); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if data["derived_poll_id"] != derived.PollID || data["channel_id"] != "channel-1" {
		t.Fatalf("unexpected event data %v", data)
	}
}

func TestFireIgnoresMissingPoll(t *testing.T) {
	f := newRunnerFixture()
	err := f.runner.Fire(context.Background(), entities.Schedule{
		PollID: "gone", ChannelID: "c", CronExp: "@daily", Type: entities.ScheduleTypeAutoClose,
	})
	if err != nil {
		t.Fatalf("expected nil error for missing poll, got %v", err)
	}
	if f.store.Len(f.tables.Polls) != 0 {
		t.Fatalf("expected no partial poll record from a missing poll")
	}
	if len(f.publisher.topics) != 0 {
		t.Fatalf("expected no events, got %v", f.publisher.topics)
	}
}

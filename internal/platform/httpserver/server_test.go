package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pollstore "pollkeeper/contexts/polling/poll-store"
	pollhttp "pollkeeper/contexts/polling/poll-store/transport/http"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestServer() *Server {
	return New(pollstore.NewInMemoryModule("polls", nil), prometheus.NewRegistry(), nil, ":0")
}

func doJSON(t *testing.T, handler http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestPollLifecycleOverHTTP(t *testing.T) {
	handler := newTestServer().Handler()

	rec := doJSON(t, handler, http.MethodPost, "/v1/polls", "owner-1", pollhttp.CreatePollRequest{
		Question: "Retro format?",
		Choices:  []string{"starfish", "sailboat"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	poll := decode[pollhttp.PollResponse](t, rec)

	for i := 0; i < 2; i++ {
		rec = doJSON(t, handler, http.MethodPost, "/v1/polls/"+poll.PollID+"/votes", "user-1", pollhttp.CastVoteRequest{ChoiceID: "starfish"})
		if rec.Code != http.StatusOK {
			t.Fatalf("cast %d: expected 200, got %d: %s", i, rec.Code, rec.Body.String())
		}
	}
	cast := decode[pollhttp.CastVoteResponse](t, rec)
	if cast.Action != "removed" || cast.SingleVote {
		t.Fatalf("expected multi-choice toggle off, got %+v", cast)
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/polls/"+poll.PollID+"/votes", "", nil)
	votes := decode[pollhttp.VoteListResponse](t, rec)
	if len(votes.Items) != 0 {
		t.Fatalf("expected no votes after toggle, got %+v", votes)
	}

	rec = doJSON(t, handler, http.MethodPost, "/v1/polls/"+poll.PollID+"/close", "user-1", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin close, got %d", rec.Code)
	}
	if body := decode[pollhttp.ErrorResponse](t, rec); body.Code != "not_poll_admin" {
		t.Fatalf("unexpected error body %+v", body)
	}

	rec = doJSON(t, handler, http.MethodPatch, "/v1/polls/"+poll.PollID+"/settings", "owner-1", pollhttp.UpdatePollSettingsRequest{
		Admins:  []string{"admin-1"},
		Options: map[string]any{"singleVote": true},
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/v1/polls/"+poll.PollID+"/votes", "user-1", pollhttp.CastVoteRequest{ChoiceID: "sailboat"})
	if cast := decode[pollhttp.CastVoteResponse](t, rec); !cast.SingleVote || cast.Action != "added" {
		t.Fatalf("expected single-vote cast, got %+v", cast)
	}

	rec = doJSON(t, handler, http.MethodPost, "/v1/polls/"+poll.PollID+"/close", "admin-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on close, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/v1/polls/"+poll.PollID+"/votes", "user-2", pollhttp.CastVoteRequest{ChoiceID: "sailboat"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for closed poll, got %d", rec.Code)
	}
	if body := decode[pollhttp.ErrorResponse](t, rec); body.Code != "poll_closed" {
		t.Fatalf("unexpected error body %+v", body)
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/polls/"+poll.PollID+"/results", "", nil)
	results := decode[pollhttp.PollResultsResponse](t, rec)
	if !results.Closed || results.TotalVotes != 1 || results.Voters != 1 {
		t.Fatalf("unexpected results %+v", results)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/v1/polls/"+poll.PollID+"?purge=true", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for delete without user, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodDelete, "/v1/polls/"+poll.PollID+"?purge=true", "owner-1", nil)
	deleted := decode[pollhttp.DeletePollResponse](t, rec)
	if !deleted.Purged || deleted.VotesRemoved != 1 {
		t.Fatalf("unexpected purge response %+v", deleted)
	}
	rec = doJSON(t, handler, http.MethodGet, "/v1/polls/"+poll.PollID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreatePollRequiresUserAndValidBody(t *testing.T) {
	handler := newTestServer().Handler()

	rec := doJSON(t, handler, http.MethodPost, "/v1/polls", "", pollhttp.CreatePollRequest{Question: "Q", Choices: []string{"A"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/polls", strings.NewReader("{"))
	req.Header.Set("X-User-Id", "u")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", rr.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/v1/polls", "u", pollhttp.CreatePollRequest{Question: "Q"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without choices, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/v1/polls", "u", pollhttp.CreatePollRequest{Question: "Q", Choices: []string{"A", "A"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate choices, got %d", rec.Code)
	}
}

func TestScheduleRoutes(t *testing.T) {
	handler := newTestServer().Handler()

	rec := doJSON(t, handler, http.MethodPost, "/v1/schedules", "", pollhttp.CreateScheduleRequest{
		PollID: "p1", ChannelID: "c1", CronExp: "0 9 * * 1", Type: "repost",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodPost, "/v1/schedules", "", pollhttp.CreateScheduleRequest{
		PollID: "p2", ChannelID: "c1", CronExp: "@daily", Type: "archive",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/schedules", "", nil)
	list := decode[pollhttp.ScheduleListResponse](t, rec)
	if len(list.Items) != 1 || list.Items[0].CronExp != "0 9 * * 1" {
		t.Fatalf("unexpected schedules %+v", list)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/v1/schedules/p1", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, "/v1/schedules/p1", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestOperationalRoutes(t *testing.T) {
	handler := newTestServer().Handler()

	if rec := doJSON(t, handler, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodGet, "/metrics", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", rec.Code)
	}
	rec := doJSON(t, handler, http.MethodGet, "/swagger/doc.json", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/v1/polls/{poll_id}/votes") {
		t.Fatalf("expected swagger document, got %d", rec.Code)
	}
}

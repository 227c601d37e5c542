package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	pollstore "pollkeeper/contexts/polling/poll-store"
	domainerrors "pollkeeper/contexts/polling/poll-store/domain/errors"
	pollhttp "pollkeeper/contexts/polling/poll-store/transport/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "pollkeeper/internal/platform/httpserver/docs"
)

const userHeader = "X-User-Id"

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	polls    pollstore.Module
	gatherer prometheus.Gatherer
	server   *http.Server
}

// New builds the API server. A nil gatherer serves the default registry.
func New(
	polls pollstore.Module,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		polls:    polls,
		gatherer: gatherer,
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the route table, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /v1/polls", s.handleCreatePoll)
	s.mux.HandleFunc("GET /v1/polls/{poll_id}", s.handleGetPoll)
	s.mux.HandleFunc("PATCH /v1/polls/{poll_id}/settings", s.handleUpdatePollSettings)
	s.mux.HandleFunc("POST /v1/polls/{poll_id}/close", s.handleClosePoll)
	s.mux.HandleFunc("DELETE /v1/polls/{poll_id}", s.handleDeletePoll)
	s.mux.HandleFunc("GET /v1/polls/{poll_id}/votes", s.handleListVotes)
	s.mux.HandleFunc("POST /v1/polls/{poll_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/polls/{poll_id}/results", s.handlePollResults)
	s.mux.HandleFunc("DELETE /v1/votes/{vote_id}", s.handleDeleteVote)

	s.mux.HandleFunc("POST /v1/schedules", s.handleCreateSchedule)
	s.mux.HandleFunc("GET /v1/schedules", s.handleListSchedules)
	s.mux.HandleFunc("GET /v1/schedules/{poll_id}", s.handleGetSchedule)
	s.mux.HandleFunc("DELETE /v1/schedules/{poll_id}", s.handleDeleteSchedule)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req pollhttp.CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.polls.Handler.CreatePollHandler(r.Context(), userID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.GetPollHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdatePollSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req pollhttp.UpdatePollSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.polls.Handler.UpdatePollSettingsHandler(r.Context(), userID, r.PathValue("poll_id"), req); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClosePoll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.polls.Handler.ClosePollHandler(r.Context(), userID, r.PathValue("poll_id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeletePoll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	purge := false
	if raw := r.URL.Query().Get("purge"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_purge", "purge must be a boolean")
			return
		}
		purge = parsed
	}
	resp, err := s.polls.Handler.DeletePollHandler(r.Context(), userID, r.PathValue("poll_id"), purge)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListVotes(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.ListVotesHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req pollhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.polls.Handler.CastVoteHandler(r.Context(), userID, r.PathValue("poll_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePollResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.PollResultsHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteVote(w http.ResponseWriter, r *http.Request) {
	if err := s.polls.Handler.DeleteVoteHandler(r.Context(), r.PathValue("vote_id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req pollhttp.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.polls.Handler.CreateScheduleHandler(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.ListSchedulesHandler(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	resp, found, err := s.polls.Handler.GetScheduleHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "schedule_not_found", "schedule not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.polls.Handler.DeleteScheduleHandler(r.Context(), r.PathValue("poll_id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(userHeader))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrInvalidPollInput),
		errors.Is(err, domainerrors.ErrInvalidVoteInput),
		errors.Is(err, domainerrors.ErrInvalidScheduleInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domainerrors.ErrPollNotFound):
		writeError(w, http.StatusNotFound, "poll_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrNotPollAdmin):
		writeError(w, http.StatusForbidden, "not_poll_admin", err.Error())
	case errors.Is(err, domainerrors.ErrPollClosed):
		writeError(w, http.StatusConflict, "poll_closed", err.Error())
	case errors.Is(err, domainerrors.ErrPollNotCreated):
		writeError(w, http.StatusInternalServerError, "poll_not_created", err.Error())
	case errors.Is(err, domainerrors.ErrScheduleNotCreated):
		writeError(w, http.StatusInternalServerError, "schedule_not_created", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, pollhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

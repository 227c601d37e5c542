package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePollRequest struct {
	Question string         `json:"question"`
	Choices  []string       `json:"choices"`
	ParentID string         `json:"parent_id,omitempty"`
	Admins   []string       `json:"admins,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type UpdatePollSettingsRequest struct {
	Admins  []string       `json:"admins"`
	Options map[string]any `json:"options"`
}

type PollResponse struct {
	PollID    string         `json:"poll_id"`
	OwnerID   string         `json:"owner_id"`
	Question  string         `json:"question"`
	Choices   []string       `json:"choices"`
	Closed    bool           `json:"closed"`
	ParentID  string         `json:"parent_id,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
	Admins    []string       `json:"admins"`
	Options   map[string]any `json:"options"`
}

type CastVoteRequest struct {
	ChoiceID string `json:"choice_id"`
}

type VoteResponse struct {
	VoteID   string `json:"vote_id"`
	PollID   string `json:"poll_id"`
	ChoiceID string `json:"choice_id"`
	UserID   string `json:"user_id"`
}

type CastVoteResponse struct {
	Action         string       `json:"action"`
	Vote           VoteResponse `json:"vote"`
	RemovedVoteIDs []string     `json:"removed_vote_ids"`
	SingleVote     bool         `json:"single_vote"`
}

type VoteListResponse struct {
	PollID string         `json:"poll_id"`
	Items  []VoteResponse `json:"items"`
}

type ChoiceCount struct {
	ChoiceID string `json:"choice_id"`
	Votes    int    `json:"votes"`
}

type PollResultsResponse struct {
	PollID     string        `json:"poll_id"`
	Question   string        `json:"question"`
	Closed     bool          `json:"closed"`
	Items      []ChoiceCount `json:"items"`
	Unknown    []ChoiceCount `json:"unknown,omitempty"`
	TotalVotes int           `json:"total_votes"`
	Voters     int           `json:"voters"`
	Hidden     bool          `json:"hidden"`
}

type DeletePollResponse struct {
	PollID       string `json:"poll_id"`
	Purged       bool   `json:"purged"`
	VotesRemoved int    `json:"votes_removed"`
}

type CreateScheduleRequest struct {
	PollID    string `json:"poll_id"`
	ChannelID string `json:"channel_id"`
	CronExp   string `json:"cron_exp"`
	Type      string `json:"type"`
}

type ScheduleResponse struct {
	PollID    string `json:"poll_id"`
	ChannelID string `json:"channel_id"`
	CronExp   string `json:"cron_exp"`
	Type      string `json:"type"`
}

type ScheduleListResponse struct {
	Items []ScheduleResponse `json:"items"`
}

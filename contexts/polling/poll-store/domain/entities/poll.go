package entities

import "time"

// Recognized PollOptions keys. Unknown keys are kept as-is.
const (
	OptionSingleVote       = "singleVote"
	OptionShowLiveResults  = "showLiveResults"
	OptionAnonymousResults = "anonymousResults"
)

// PollOptions is the configuration bag of a poll. It is replaced as a unit.
type PollOptions map[string]any

// SingleVote reports whether a user may hold at most one vote on the poll.
func (o PollOptions) SingleVote() bool {
	return o.Bool(OptionSingleVote)
}

func (o PollOptions) Bool(key string) bool {
	return o.BoolOr(key, false)
}

// BoolOr returns fallback when key is absent or not a boolean.
func (o PollOptions) BoolOr(key string, fallback bool) bool {
	value, ok := o[key].(bool)
	if !ok {
		return fallback
	}
	return value
}

// HidesLiveResults reports whether counts stay hidden until the poll closes.
// Live results are shown unless showLiveResults is explicitly false.
func (o PollOptions) HidesLiveResults() bool {
	return !o.BoolOr(OptionShowLiveResults, true)
}

// AnonymousResults reports whether voter ids are withheld from vote listings.
func (o PollOptions) AnonymousResults() bool {
	return o.Bool(OptionAnonymousResults)
}

type Poll struct {
	PollID    string
	OwnerID   string
	Question  string
	Choices   []string
	Closed    bool
	ParentID  string
	CreatedAt time.Time
	Admins    []string
	Options   PollOptions
}

// HasChoice reports whether choiceID names one of the poll's choices.
func (p Poll) HasChoice(choiceID string) bool {
	for _, choice := range p.Choices {
		if choice == choiceID {
			return true
		}
	}
	return false
}

// IsAdmin reports whether userID may manage the poll. The owner always may.
func (p Poll) IsAdmin(userID string) bool {
	if userID == "" {
		return false
	}
	if p.OwnerID == userID {
		return true
	}
	for _, admin := range p.Admins {
		if admin == userID {
			return true
		}
	}
	return false
}

// PollTally is a derived view of a poll's votes; it is never stored.
type PollTally struct {
	Poll       Poll
	Counts     map[string]int
	Unknown    map[string]int
	TotalVotes int
	Voters     int
}

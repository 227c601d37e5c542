package entities

type Vote struct {
	VoteID   string
	PollID   string
	ChoiceID string
	UserID   string
}

// CastAction is the outcome of a vote cast.
type CastAction string

const (
	CastActionAdded    CastAction = "added"
	CastActionRemoved  CastAction = "removed"
	CastActionReplaced CastAction = "replaced"
)

package entities

type ScheduleType string

const (
	ScheduleTypeRepost    ScheduleType = "repost"
	ScheduleTypeAutoClose ScheduleType = "auto_close"
)

// Valid reports whether the type is one the runner knows how to fire.
func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleTypeRepost, ScheduleTypeAutoClose:
		return true
	default:
		return false
	}
}

// Schedule is keyed by the id of the poll it triggers.
type Schedule struct {
	PollID    string
	ChannelID string
	CronExp   string
	Type      ScheduleType
}

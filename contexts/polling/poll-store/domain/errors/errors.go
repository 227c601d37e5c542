package errors

import "errors"

var (
	ErrInvalidPollInput     = errors.New("invalid poll input")
	ErrInvalidVoteInput     = errors.New("invalid vote input")
	ErrInvalidScheduleInput = errors.New("invalid schedule input")
	ErrPollNotCreated       = errors.New("poll was not created")
	ErrScheduleNotCreated   = errors.New("schedule was not created")
	ErrPollNotFound         = errors.New("poll not found")
	ErrPollClosed           = errors.New("poll is closed")
	ErrNotPollAdmin         = errors.New("caller is not a poll admin")
	ErrBatchTooLarge        = errors.New("batch exceeds store limit")
	ErrUnsupportedIndex     = errors.New("unsupported secondary index")
	ErrUnsupportedTable     = errors.New("unsupported table")
	ErrMalformedRecord      = errors.New("malformed record")
)

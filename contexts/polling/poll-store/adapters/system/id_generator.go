package system

import (
	"context"

	"github.com/google/uuid"
)

// UUIDGenerator issues random (v4) UUID strings for polls, votes and events.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

package store

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomNotJoinable   = errors.New("room is not accepting players")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInvalidName       = errors.New("name is required")
	ErrNotPreparing      = errors.New("room is not getting ready")
	ErrInvalidTransition = errors.New("invalid room status transition")
)

// RateLimitError rejects a room creation inside the cooldown window
type RateLimitError struct {
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("please wait %d seconds before creating another room", e.Seconds())
}

// Seconds is the wait rounded up to whole seconds
func (e *RateLimitError) Seconds() int {
	return int(math.Ceil(e.Wait.Seconds()))
}

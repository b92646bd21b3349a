package sim

import (
	"github.com/aaronzipp/voice-party/internal/models"
	"github.com/aaronzipp/voice-party/internal/voice"
)

// EventType names an engine notification
type EventType string

const (
	EventAllReady  EventType = "all_ready"
	EventCountdown EventType = "countdown"
	EventStarted   EventType = "started"
	EventState     EventType = "state"
	EventEnded     EventType = "ended"
	EventCommand   EventType = "command"
	EventAborted   EventType = "aborted"
)

// Event is emitted by a room worker. Snapshot is a private copy.
type Event struct {
	Type     EventType
	RoomCode string
	Count    int                 // EventCountdown
	Snapshot *models.GameSession // EventStarted, EventState, EventEnded
	PlayerID string              // EventCommand
	Action   voice.ScoredAction  // EventCommand
	Reason   string              // EventAborted
}

// Emitter receives engine events. Emit runs on the room's worker goroutine:
// it must not block and must not call back into Destroy or CreateSession for
// the same room.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter
type EmitterFunc func(Event)

// Emit calls f(ev)
func (f EmitterFunc) Emit(ev Event) {
	f(ev)
}

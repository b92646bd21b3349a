package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/voice-party/internal/broadcast"
	"github.com/aaronzipp/voice-party/internal/store"
)

// clientIdentity keys the room creation cooldown; swapped in tests
var clientIdentity = remoteIdentity

// remoteIdentity is the peer's IP. Forwarding headers are ignored because
// the client controls them.
func remoteIdentity(c *gin.Context) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}

// decode unmarshals and validates an inbound payload
func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return binding.Validator.ValidateStruct(dst)
}

// errorPayload is sent to the requester of a rejected request
type errorPayload struct {
	Event      string `json:"event"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func (ctx *Context) sendError(connID, event string, err error) {
	payload := errorPayload{Event: event, Message: err.Error()}
	var rl *store.RateLimitError
	if errors.As(err, &rl) {
		payload.RetryAfter = rl.Seconds()
	}
	log.Debug().
		Err(err).
		Str("conn_id", connID).
		Str("event", event).
		Msg("Rejected request")
	ctx.Hub.Send(connID, broadcast.EventError, payload)
}

// hostOf checks that connID is the host of code
func (ctx *Context) hostOf(connID, code string) bool {
	b, ok := ctx.Registry.Binding(connID)
	return ok && b.IsHost && b.RoomCode == code
}

// playerOf checks that connID is bound to playerID in code
func (ctx *Context) playerOf(connID, code, playerID string) bool {
	b, ok := ctx.Registry.Binding(connID)
	return ok && !b.IsHost && b.RoomCode == code && b.PlayerID == playerID
}

package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/voice-party/internal/broadcast"
	"github.com/aaronzipp/voice-party/internal/game"
	"github.com/aaronzipp/voice-party/internal/models"
	"github.com/aaronzipp/voice-party/internal/render"
	"github.com/aaronzipp/voice-party/internal/sim"
	"github.com/aaronzipp/voice-party/internal/store"
	"github.com/aaronzipp/voice-party/internal/voice"
)

type readyRequest struct {
	RoomCode string `json:"roomCode" binding:"required"`
	PlayerID string `json:"playerId" binding:"required"`
	HasMic   bool   `json:"hasMic"`
}

type commandPayload struct {
	PlayerID   string          `json:"playerId"`
	Command    string          `json:"command"`
	Confidence float64         `json:"confidence"`
	Score      float64         `json:"score"`
	Kind       voice.MatchKind `json:"kind"`
}

// handlePlayerReady toggles a player's ready flag and feeds the ready gate
func (ctx *Context) handlePlayerReady(cn conn, raw json.RawMessage, ready bool) {
	event := broadcast.EventPlayerNotReady
	if ready {
		event = broadcast.EventPlayerReady
	}

	var req readyRequest
	if err := decode(raw, &req); err != nil {
		ctx.sendError(cn.id, event, err)
		return
	}
	code := game.NormalizeRoomCode(req.RoomCode)
	if !ctx.playerOf(cn.id, code, req.PlayerID) {
		ctx.sendError(cn.id, event, errNotYourPlayer)
		return
	}

	var (
		room models.RoomView
		err  error
	)
	if ready {
		room, _, err = ctx.Registry.SetReady(code, req.PlayerID, req.HasMic)
	} else {
		room, _, err = ctx.Registry.SetNotReady(code, req.PlayerID)
	}
	if err != nil {
		ctx.sendError(cn.id, event, err)
		return
	}

	ctx.Hub.Broadcast(code, broadcast.EventPlayerReadyStatus, game.SummarizeReady(room, req.PlayerID))
	ctx.Engine.UpdateReadiness(code, ctx.allReady(code))

	if ready && req.HasMic {
		ctx.startVoice(code, req.PlayerID)
	}
}

// allReady reads the room's ready states at the moment the worker asks
func (ctx *Context) allReady(code string) func() bool {
	return func() bool {
		view, ok := ctx.Registry.Get(code)
		return ok && view.Status == models.RoomPreparing && game.AllReady(view)
	}
}

// handleAudio forwards a binary frame from a player to their speech stream
func (ctx *Context) handleAudio(connID string, frame []byte) {
	b, ok := ctx.Registry.Binding(connID)
	if !ok || b.IsHost {
		return
	}
	ctx.Speech.Feed(b.PlayerID, frame)
}

// handleTranscript merges a transcript into the room's session
func (ctx *Context) handleTranscript(playerID string, t voice.Transcript) {
	ctx.voiceMu.Lock()
	code, ok := ctx.voiceRooms[playerID]
	ctx.voiceMu.Unlock()
	if !ok {
		return
	}
	ctx.Engine.SubmitTranscript(code, playerID, t)
}

func (ctx *Context) handleVoiceDegraded(playerID string, err error) {
	ctx.voiceMu.Lock()
	code, ok := ctx.voiceRooms[playerID]
	delete(ctx.voiceRooms, playerID)
	ctx.voiceMu.Unlock()
	if !ok {
		return
	}
	log.Warn().Err(err).Str("room_code", code).Str("player_id", playerID).Msg("Voice unavailable")

	room, ok := ctx.Registry.Get(code)
	if !ok {
		return
	}
	notice := gin.H{
		"playerId": playerID,
		"message":  "voice input is unavailable, the game continues without it",
	}
	for _, p := range room.Players {
		if p.ID == playerID && p.ConnID != "" {
			ctx.Hub.Send(p.ConnID, broadcast.EventVoiceUnavailable, notice)
		}
	}
	// the host gets a copy
	if room.HostConnID != "" {
		ctx.Hub.Send(room.HostConnID, broadcast.EventVoiceUnavailable, notice)
	}
}

func (ctx *Context) startVoice(code, playerID string) {
	ctx.voiceMu.Lock()
	ctx.voiceRooms[playerID] = code
	ctx.voiceMu.Unlock()
	go func() {
		_ = ctx.Speech.Start(ctx.base, playerID)
	}()
}

func (ctx *Context) restartVoice(code, playerID string) {
	ctx.voiceMu.Lock()
	ctx.voiceRooms[playerID] = code
	ctx.voiceMu.Unlock()
	go func() {
		_ = ctx.Speech.Restart(ctx.base, playerID)
	}()
}

// stopVoice closes the stream but remembers the room so a reconnect resumes it
func (ctx *Context) stopVoice(playerID string) {
	ctx.Speech.Stop(playerID)
}

func (ctx *Context) forgetVoice(playerID string) {
	ctx.voiceMu.Lock()
	delete(ctx.voiceRooms, playerID)
	ctx.voiceMu.Unlock()
	ctx.Speech.Stop(playerID)
}

func (ctx *Context) hasVoice(playerID string) bool {
	ctx.voiceMu.Lock()
	defer ctx.voiceMu.Unlock()
	_, ok := ctx.voiceRooms[playerID]
	return ok
}

func (ctx *Context) forgetRoomVoices(code string) {
	ctx.voiceMu.Lock()
	var ids []string
	for id, c := range ctx.voiceRooms {
		if c == code {
			ids = append(ids, id)
			delete(ctx.voiceRooms, id)
		}
	}
	ctx.voiceMu.Unlock()
	for _, id := range ids {
		ctx.Speech.Stop(id)
	}
}

// Emit turns engine events into broadcasts and room status changes. It runs
// on the room's worker goroutine.
func (ctx *Context) Emit(ev sim.Event) {
	code := ev.RoomCode
	switch ev.Type {
	case sim.EventAllReady:
		ctx.Hub.Broadcast(code, broadcast.EventAllPlayersReady, gin.H{"roomCode": code})
	case sim.EventCountdown:
		ctx.Hub.Broadcast(code, broadcast.EventGameCountdown, gin.H{"n": ev.Count})
	case sim.EventStarted:
		ctx.transition(code, models.RoomPlaying)
		ctx.Hub.Broadcast(code, broadcast.EventGameStateUpdate, gin.H{"snapshot": ev.Snapshot})
	case sim.EventState:
		ctx.Hub.Broadcast(code, broadcast.EventGameStateUpdate, gin.H{"snapshot": ev.Snapshot})
	case sim.EventEnded:
		ctx.transition(code, models.RoomFinished)
		ctx.Hub.Broadcast(code, broadcast.EventGameEnded, gin.H{
			"snapshot":  ev.Snapshot,
			"standings": render.Standings(ev.Snapshot),
		})
	case sim.EventCommand:
		ctx.Hub.Broadcast(code, broadcast.EventPlayerCommand, commandPayload{
			PlayerID:   ev.PlayerID,
			Command:    ev.Action.Command,
			Confidence: ev.Action.Confidence,
			Score:      ev.Action.Score,
			Kind:       ev.Action.Kind,
		})
	case sim.EventAborted:
		room, ok := ctx.transition(code, models.RoomWaiting)
		payload := gin.H{"reason": ev.Reason}
		if ok {
			payload["room"] = room
		}
		ctx.Hub.Broadcast(code, broadcast.EventReturnedToLobby, payload)
	}
}

func (ctx *Context) transition(code string, to models.RoomStatus) (models.RoomView, bool) {
	room, err := ctx.Registry.Transition(code, to)
	if err != nil {
		log.Warn().Err(err).Str("room_code", code).Str("to", string(to)).Msg("Room transition failed")
		return models.RoomView{}, false
	}
	return room, true
}

// SweepHooks connects the registry's background sweeps to the engine and
// the connected clients
func (ctx *Context) SweepHooks() store.Hooks {
	return store.Hooks{
		OnRemoved: func(r store.Removal) {
			ctx.Engine.Destroy(r.RoomCode)
			ctx.forgetRoomVoices(r.RoomCode)
			ctx.Hub.Broadcast(r.RoomCode, broadcast.EventRoomClosed, gin.H{
				"roomCode": r.RoomCode,
				"reason":   r.Reason,
			})
			for _, id := range ctx.Hub.Members(r.RoomCode) {
				ctx.Hub.Detach(id)
			}
		},
		OnHostAway: func(code string) {
			ctx.Hub.Broadcast(code, broadcast.EventHostDisconnected, gin.H{"roomCode": code})
		},
	}
}

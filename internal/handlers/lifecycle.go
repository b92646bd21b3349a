package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/voice-party/internal/broadcast"
	"github.com/aaronzipp/voice-party/internal/game"
	"github.com/aaronzipp/voice-party/internal/models"
)

type startGameRequest struct {
	RoomCode string          `json:"roomCode" binding:"required"`
	Mode     models.GameMode `json:"mode" binding:"required"`
}

type roomRequest struct {
	RoomCode string `json:"roomCode" binding:"required"`
}

// handleStartGame creates a session and moves the room into its ready check
func (ctx *Context) handleStartGame(cn conn, raw json.RawMessage) {
	var req startGameRequest
	if err := decode(raw, &req); err != nil {
		ctx.sendError(cn.id, broadcast.EventStartGame, err)
		return
	}
	code := game.NormalizeRoomCode(req.RoomCode)
	if !ctx.hostOf(cn.id, code) {
		ctx.sendError(cn.id, broadcast.EventStartGame, errNotHost)
		return
	}

	room, ok := ctx.Registry.Get(code)
	if !ok {
		ctx.Hub.Send(cn.id, broadcast.EventRoomNotFound, gin.H{"roomCode": code})
		return
	}
	if !game.CanStart(room) {
		ctx.sendError(cn.id, broadcast.EventStartGame,
			fmt.Errorf("cannot start a game with %d players while %s", len(room.Players), room.Status))
		return
	}

	session, err := ctx.Engine.CreateSession(code, req.Mode, room.Players)
	if err != nil {
		ctx.sendError(cn.id, broadcast.EventStartGame, err)
		return
	}
	room, err = ctx.Registry.Transition(code, models.RoomPreparing)
	if err != nil {
		ctx.Engine.Destroy(code)
		ctx.sendError(cn.id, broadcast.EventStartGame, err)
		return
	}

	log.Info().
		Str("room_code", code).
		Str("mode", string(req.Mode)).
		Int("players", len(room.Players)).
		Msg("Game prepared")

	ctx.Hub.Broadcast(code, broadcast.EventGameStarted, gin.H{
		"room":     room,
		"snapshot": session,
	})
}

// handleReturnToLobby tears the session down and reopens the room
func (ctx *Context) handleReturnToLobby(cn conn, raw json.RawMessage) {
	var req roomRequest
	if err := decode(raw, &req); err != nil {
		ctx.sendError(cn.id, broadcast.EventReturnToLobby, err)
		return
	}
	code := game.NormalizeRoomCode(req.RoomCode)
	if !ctx.hostOf(cn.id, code) {
		ctx.sendError(cn.id, broadcast.EventReturnToLobby, errNotHost)
		return
	}

	ctx.Engine.Destroy(code)
	room, err := ctx.Registry.Transition(code, models.RoomWaiting)
	if err != nil {
		ctx.sendError(cn.id, broadcast.EventReturnToLobby, err)
		return
	}

	log.Info().Str("room_code", code).Msg("Returned to lobby")
	ctx.Hub.Broadcast(code, broadcast.EventReturnedToLobby, gin.H{"room": room})
}

package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/voice-party/internal/broadcast"
	"github.com/aaronzipp/voice-party/internal/game"
	"github.com/aaronzipp/voice-party/internal/models"
	"github.com/aaronzipp/voice-party/internal/store"
)

var (
	errNotHost       = errors.New("only the host can do that")
	errNotYourPlayer = errors.New("connection is not bound to that player")
)

type joinRoomRequest struct {
	RoomCode string `json:"roomCode" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type reconnectRoomRequest struct {
	Code string `json:"code" binding:"required"`
}

type reconnectPlayerRequest struct {
	Code     string `json:"code" binding:"required"`
	PlayerID string `json:"playerId" binding:"required"`
}

type removePlayerRequest struct {
	RoomCode string `json:"roomCode" binding:"required"`
	PlayerID string `json:"playerId" binding:"required"`
}

type roomCreatedPayload struct {
	RoomCode string          `json:"roomCode"`
	JoinURL  string          `json:"joinUrl"`
	QRURL    string          `json:"qrUrl"`
	Room     models.RoomView `json:"room"`
}

type playerPayload struct {
	PlayerID string           `json:"playerId"`
	Player   *models.Player   `json:"player,omitempty"`
	Room     *models.RoomView `json:"room,omitempty"`
	Reason   string           `json:"reason,omitempty"`
}

// handleCreateRoom opens a new room hosted by the calling connection
func (ctx *Context) handleCreateRoom(cn conn) {
	room, err := ctx.Registry.CreateRoom(cn.id, cn.identity)
	if err != nil {
		ctx.sendError(cn.id, broadcast.EventCreateRoom, err)
		return
	}
	ctx.Hub.Attach(room.Code, cn.id)

	log.Info().
		Str("room_code", room.Code).
		Str("conn_id", cn.id).
		Msg("Created room")

	ctx.Hub.Send(cn.id, broadcast.EventRoomCreated, roomCreatedPayload{
		RoomCode: room.Code,
		JoinURL:  ctx.joinURL(room.Code),
		QRURL:    "/api/rooms/" + room.Code + "/qr.png",
		Room:     room,
	})
}

// handleJoinRoom adds the calling connection to a waiting room as a player
func (ctx *Context) handleJoinRoom(cn conn, raw json.RawMessage) {
	var req joinRoomRequest
	if err := decode(raw, &req); err != nil {
		ctx.sendError(cn.id, broadcast.EventJoinRoom, err)
		return
	}
	code := game.NormalizeRoomCode(req.RoomCode)
	if !game.ValidRoomCode(code) {
		ctx.Hub.Send(cn.id, broadcast.EventRoomNotFound, gin.H{"roomCode": code})
		return
	}

	player, err := ctx.Registry.JoinRoom(code, req.Name, cn.id)
	if errors.Is(err, store.ErrRoomNotFound) {
		ctx.Hub.Send(cn.id, broadcast.EventRoomNotFound, gin.H{"roomCode": code})
		return
	}
	if err != nil {
		ctx.sendError(cn.id, broadcast.EventJoinRoom, err)
		return
	}
	ctx.Hub.Attach(code, cn.id)

	log.Info().
		Str("room_code", code).
		Str("player_id", player.ID).
		Str("name", player.Name).
		Msg("Player joined room")

	payload := playerPayload{PlayerID: player.ID, Player: &player}
	if view, ok := ctx.Registry.Get(code); ok {
		payload.Room = &view
	}
	ctx.Hub.Broadcast(code, broadcast.EventPlayerJoined, payload)
}

// handleReconnectRoom rebinds a returning host
func (ctx *Context) handleReconnectRoom(cn conn, raw json.RawMessage) {
	var req reconnectRoomRequest
	if err := decode(raw, &req); err != nil {
		ctx.sendError(cn.id, broadcast.EventReconnectRoom, err)
		return
	}
	code := game.NormalizeRoomCode(req.Code)

	room, ok := ctx.Registry.ReconnectHost(code, cn.id)
	if !ok {
		ctx.Hub.Send(cn.id, broadcast.EventRoomNotFound, gin.H{"roomCode": code})
		return
	}
	ctx.Hub.Attach(code, cn.id)
	log.Info().Str("room_code", code).Msg("Host reconnected")

	payload := gin.H{"room": room}
	if session, ok := ctx.Engine.Snapshot(code); ok {
		payload["session"] = session
	}
	ctx.Hub.Send(cn.id, broadcast.EventRoomReconnected, payload)
}

// handleReconnectPlayer rebinds a returning player and resumes their voice
func (ctx *Context) handleReconnectPlayer(cn conn, raw json.RawMessage) {
	var req reconnectPlayerRequest
	if err := decode(raw, &req); err != nil {
		ctx.sendError(cn.id, broadcast.EventReconnectPlayer, err)
		return
	}
	code := game.NormalizeRoomCode(req.Code)

	player, ok := ctx.Registry.ReconnectPlayer(code, req.PlayerID, cn.id)
	if !ok {
		ctx.Hub.Send(cn.id, broadcast.EventRoomNotFound, gin.H{"roomCode": code})
		return
	}
	ctx.Hub.Attach(code, cn.id)
	log.Info().Str("room_code", code).Str("player_id", player.ID).Msg("Player reconnected")

	payload := playerPayload{PlayerID: player.ID, Player: &player}
	if view, ok := ctx.Registry.Get(code); ok {
		payload.Room = &view
	}
	ctx.Hub.Broadcast(code, broadcast.EventPlayerReconnected, payload)

	if session, ok := ctx.Engine.Snapshot(code); ok {
		ctx.Hub.Send(cn.id, broadcast.EventGameStateUpdate, gin.H{"snapshot": session})
	}
	if ctx.hasVoice(player.ID) {
		ctx.restartVoice(code, player.ID)
	}
}

// handleRemovePlayer lets the host kick a player
func (ctx *Context) handleRemovePlayer(cn conn, raw json.RawMessage) {
	var req removePlayerRequest
	if err := decode(raw, &req); err != nil {
		ctx.sendError(cn.id, broadcast.EventRemovePlayer, err)
		return
	}
	code := game.NormalizeRoomCode(req.RoomCode)
	if !ctx.hostOf(cn.id, code) {
		ctx.sendError(cn.id, broadcast.EventRemovePlayer, errNotHost)
		return
	}

	player, err := ctx.Registry.RemovePlayer(code, req.PlayerID)
	if err != nil {
		ctx.sendError(cn.id, broadcast.EventRemovePlayer, err)
		return
	}
	ctx.forgetVoice(player.ID)

	left := playerPayload{PlayerID: player.ID, Reason: "removed"}
	ctx.Hub.Send(player.ConnID, broadcast.EventPlayerLeft, left)
	ctx.Hub.Detach(player.ConnID)
	ctx.Hub.Broadcast(code, broadcast.EventPlayerLeft, left)

	log.Info().Str("room_code", code).Str("player_id", player.ID).Msg("Player removed")

	// the removed player may have been the last one holding up the ready check
	ctx.Engine.UpdateReadiness(code, ctx.allReady(code))
}

// disconnect handles both an explicit leaveRoom and a dropped socket
func (ctx *Context) disconnect(connID string) {
	res := ctx.Registry.LeaveRoom(connID)
	ctx.Hub.Detach(connID)

	switch res.Kind {
	case store.LeftHost:
		log.Info().Str("room_code", res.RoomCode).Msg("Host disconnected, grace period started")
	case store.LeftPlayer:
		ctx.stopVoice(res.PlayerID)
		log.Info().
			Str("room_code", res.RoomCode).
			Str("player_id", res.PlayerID).
			Msg("Player disconnected")
		if res.HostConnID != "" {
			ctx.Hub.Send(res.HostConnID, broadcast.EventPlayerDisconnected, playerPayload{PlayerID: res.PlayerID})
		}
	}
}

func (ctx *Context) joinURL(code string) string {
	return ctx.PublicURL + "/?room=" + code
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/aaronzipp/voice-party/internal/game"
	"github.com/aaronzipp/voice-party/internal/render"
)

const qrSize = 256

// HandleRoomSummary returns the public state of a room and its session
func (ctx *Context) HandleRoomSummary(c *gin.Context) {
	code := game.NormalizeRoomCode(c.Param("code"))
	room, ok := ctx.Registry.Get(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	summary := render.RoomSummary{
		Room:         room,
		ReadyPlayers: game.GetReadyPlayerNames(room),
		JoinURL:      ctx.joinURL(code),
	}
	if session, ok := ctx.Engine.Snapshot(code); ok {
		summary.Session = session
		summary.Standings = render.Standings(session)
	}
	c.JSON(http.StatusOK, summary)
}

// HandleRoomQR serves a PNG QR code of the room's join link
func (ctx *Context) HandleRoomQR(c *gin.Context) {
	code := game.NormalizeRoomCode(c.Param("code"))
	if !ctx.Registry.Exists(code) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	png, err := qrcode.Encode(ctx.joinURL(code), qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("room_code", code).Msg("Failed to encode QR code")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not render QR code"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

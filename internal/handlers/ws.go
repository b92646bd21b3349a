package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/voice-party/internal/broadcast"
)

// maxMessageBytes caps any single websocket message. Audio frames above the
// speech frame limit but below this are dropped rather than closing the
// connection.
const maxMessageBytes = 1 << 20

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// conn is the per-connection state of the read loop
type conn struct {
	id       string
	identity string
}

// HandleWebSocket upgrades the request and runs the connection's read loop
// until the client goes away
func (ctx *Context) HandleWebSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	broadcast.PrepareRead(ws, maxMessageBytes)

	client := ctx.Hub.Register(ws)
	cn := conn{id: client.ID, identity: clientIdentity(c)}
	log.Debug().Str("conn_id", cn.id).Str("identity", cn.identity).Msg("Client connected")

	defer func() {
		ctx.disconnect(cn.id)
		ctx.Hub.Unregister(cn.id)
		log.Debug().Str("conn_id", cn.id).Msg("Client disconnected")
	}()

	for {
		kind, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("conn_id", cn.id).Msg("Read failed")
			}
			return
		}
		switch kind {
		case websocket.BinaryMessage:
			ctx.handleAudio(cn.id, data)
		case websocket.TextMessage:
			var msg broadcast.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Debug().Err(err).Str("conn_id", cn.id).Msg("Dropped malformed message")
				continue
			}
			ctx.dispatch(cn, msg)
		}
	}
}

// dispatch routes one inbound event to its handler
func (ctx *Context) dispatch(cn conn, msg broadcast.Message) {
	switch msg.Type {
	case broadcast.EventCreateRoom:
		ctx.handleCreateRoom(cn)
	case broadcast.EventJoinRoom:
		ctx.handleJoinRoom(cn, msg.Data)
	case broadcast.EventReconnectRoom:
		ctx.handleReconnectRoom(cn, msg.Data)
	case broadcast.EventReconnectPlayer:
		ctx.handleReconnectPlayer(cn, msg.Data)
	case broadcast.EventStartGame:
		ctx.handleStartGame(cn, msg.Data)
	case broadcast.EventPlayerReady:
		ctx.handlePlayerReady(cn, msg.Data, true)
	case broadcast.EventPlayerNotReady:
		ctx.handlePlayerReady(cn, msg.Data, false)
	case broadcast.EventRemovePlayer:
		ctx.handleRemovePlayer(cn, msg.Data)
	case broadcast.EventLeaveRoom:
		ctx.disconnect(cn.id)
	case broadcast.EventReturnToLobby:
		ctx.handleReturnToLobby(cn, msg.Data)
	default:
		log.Debug().Str("conn_id", cn.id).Str("event", msg.Type).Msg("Unknown event")
	}
}

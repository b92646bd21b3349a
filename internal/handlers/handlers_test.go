package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronzipp/voice-party/internal/broadcast"
	"github.com/aaronzipp/voice-party/internal/game"
	"github.com/aaronzipp/voice-party/internal/models"
	"github.com/aaronzipp/voice-party/internal/sim"
	"github.com/aaronzipp/voice-party/internal/speech"
	"github.com/aaronzipp/voice-party/internal/store"
)

func setupServer(t *testing.T) (*Context, *httptest.Server) {
	t.Helper()
	return setupServerWith(t, nil)
}

func setupServerWith(t *testing.T, provider speech.Provider) (*Context, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var n atomic.Int64
	prev := clientIdentity
	clientIdentity = func(*gin.Context) string { return fmt.Sprintf("client-%d", n.Add(1)) }

	ctx := NewContext(Options{
		Store: store.DefaultConfig(),
		Sim: sim.Config{
			TickRate:      100,
			ReadyDelay:    5 * time.Millisecond,
			CountdownStep: 5 * time.Millisecond,
			CountdownFrom: 3,
			TrackLength:   100,
			InboxSize:     64,
		},
		Speech:    speech.Config{Attempts: 1, MaxFrameBytes: 1024},
		Provider:  provider,
		PublicURL: "http://party.test",
	})
	srv := httptest.NewServer(NewRouter(ctx))
	t.Cleanup(func() {
		srv.Close()
		ctx.Close()
		clientIdentity = prev
	})
	return ctx, srv
}

type wsClient struct {
	t  *testing.T
	ws *websocket.Conn
}

func dial(t *testing.T, srv *httptest.Server) *wsClient {
	t.Helper()
	return dialWith(t, srv, nil)
}

func dialWith(t *testing.T, srv *httptest.Server, header http.Header) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return &wsClient{t: t, ws: ws}
}

func (c *wsClient) send(event string, data any) {
	c.t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.ws.WriteJSON(broadcast.Message{Type: event, Data: raw}))
}

// expect reads until an event of the given type arrives
func (c *wsClient) expect(event string) map[string]any {
	c.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(c.t, c.ws.SetReadDeadline(deadline))
		var msg broadcast.Message
		require.NoError(c.t, c.ws.ReadJSON(&msg), "waiting for %s", event)
		if msg.Type != event {
			continue
		}
		data := map[string]any{}
		if len(msg.Data) > 0 {
			require.NoError(c.t, json.Unmarshal(msg.Data, &data))
		}
		return data
	}
}

// drain reads until event arrives and returns the types seen before it
func (c *wsClient) drain(event string) []string {
	c.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var seen []string
	for {
		require.NoError(c.t, c.ws.SetReadDeadline(deadline))
		var msg broadcast.Message
		require.NoError(c.t, c.ws.ReadJSON(&msg), "waiting for %s", event)
		if msg.Type == event {
			return seen
		}
		seen = append(seen, msg.Type)
	}
}

func createRoom(t *testing.T, srv *httptest.Server) (*wsClient, string) {
	host := dial(t, srv)
	host.send(broadcast.EventCreateRoom, nil)
	created := host.expect(broadcast.EventRoomCreated)
	code, _ := created["roomCode"].(string)
	require.Len(t, code, 4)
	return host, code
}

func joinRoom(t *testing.T, srv *httptest.Server, code, name string) (*wsClient, string) {
	p := dial(t, srv)
	p.send(broadcast.EventJoinRoom, map[string]string{"roomCode": code, "name": name})
	joined := p.expect(broadcast.EventPlayerJoined)
	id, _ := joined["playerId"].(string)
	require.NotEmpty(t, id)
	return p, id
}

func TestTugOfWarOverWebSocket(t *testing.T) {
	ctx, srv := setupServer(t)
	host, code := createRoom(t, srv)
	red, redID := joinRoom(t, srv, strings.ToLower(code), "Ann")
	blue, blueID := joinRoom(t, srv, code, "Ben")

	host.send(broadcast.EventStartGame, map[string]string{"roomCode": code, "mode": "tug_of_war"})
	started := host.expect(broadcast.EventGameStarted)
	room := started["room"].(map[string]any)
	assert.Equal(t, "preparing", room["status"])
	tug := started["snapshot"].(map[string]any)["tug"].(map[string]any)
	teams := tug["teams"].(map[string]any)
	assert.Equal(t, []any{redID}, teams["red"])
	assert.Equal(t, []any{blueID}, teams["blue"])
	assert.Equal(t, 0.0, tug["ropePosition"])
	words := tug["assignedWord"].(map[string]any)
	assert.NotEqual(t, words[redID], words[blueID])

	red.send(broadcast.EventPlayerReady, map[string]any{"roomCode": code, "playerId": redID, "hasMic": true})
	status := host.expect(broadcast.EventPlayerReadyStatus)
	assert.Equal(t, 1.0, status["readyCount"])
	blue.send(broadcast.EventPlayerReady, map[string]any{"roomCode": code, "playerId": blueID, "hasMic": false})

	host.expect(broadcast.EventAllPlayersReady)
	assert.Equal(t, 3.0, host.expect(broadcast.EventGameCountdown)["n"])
	host.expect(broadcast.EventGameStateUpdate)
	require.Eventually(t, func() bool {
		r, ok := ctx.Registry.Get(code)
		return ok && r.Status == models.RoomPlaying
	}, 2*time.Second, 5*time.Millisecond)

	phrase, ok := game.PhraseFor(words[redID].(string))
	require.True(t, ok)

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := red.ws.WriteMessage(websocket.BinaryMessage, []byte(phrase)); err != nil {
					return
				}
			}
		}
	}()

	ended := host.expect(broadcast.EventGameEnded)
	snapshot := ended["snapshot"].(map[string]any)
	assert.Equal(t, "finished", snapshot["status"])
	assert.Equal(t, redID, snapshot["winner"])
	standings := ended["standings"].([]any)
	require.Len(t, standings, 2)
	assert.Equal(t, redID, standings[0].(map[string]any)["playerId"])

	require.Eventually(t, func() bool {
		r, ok := ctx.Registry.Get(code)
		return ok && r.Status == models.RoomFinished
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, ctx.Engine.Active())
}

func TestPlayerCommandIsAnnounced(t *testing.T) {
	_, srv := setupServer(t)
	host, code := createRoom(t, srv)
	p, id := joinRoom(t, srv, code, "Ann")

	host.send(broadcast.EventStartGame, map[string]string{"roomCode": code, "mode": "racer"})
	host.expect(broadcast.EventGameStarted)
	p.send(broadcast.EventPlayerReady, map[string]any{"roomCode": code, "playerId": id, "hasMic": true})
	host.expect(broadcast.EventGameStateUpdate)

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := p.ws.WriteMessage(websocket.BinaryMessage, []byte("jump")); err != nil {
					return
				}
			}
		}
	}()

	cmd := host.expect(broadcast.EventPlayerCommand)
	require.NotNil(t, cmd)
	assert.Equal(t, id, cmd["playerId"])
	assert.Equal(t, "jump", cmd["command"])
	assert.Equal(t, 0.0, cmd["score"])
}

type downProvider struct{}

func (downProvider) Open(context.Context, string) (speech.Stream, error) {
	return nil, errors.New("recognizer offline")
}

func TestVoiceUnavailableReachesOnlyPlayerAndHost(t *testing.T) {
	_, srv := setupServerWith(t, downProvider{})
	host, code := createRoom(t, srv)
	ann, annID := joinRoom(t, srv, code, "Ann")
	ben, benID := joinRoom(t, srv, code, "Ben")

	host.send(broadcast.EventStartGame, map[string]string{"roomCode": code, "mode": "racer"})
	host.expect(broadcast.EventGameStarted)

	ann.send(broadcast.EventPlayerReady, map[string]any{"roomCode": code, "playerId": annID, "hasMic": true})
	assert.Equal(t, annID, ann.expect(broadcast.EventVoiceUnavailable)["playerId"])
	assert.Equal(t, annID, host.expect(broadcast.EventVoiceUnavailable)["playerId"])

	ben.send(broadcast.EventPlayerReady, map[string]any{"roomCode": code, "playerId": benID})
	assert.NotContains(t, ben.drain(broadcast.EventAllPlayersReady), broadcast.EventVoiceUnavailable)
}

func TestJoinUnknownRoom(t *testing.T) {
	_, srv := setupServer(t)
	p := dial(t, srv)
	p.send(broadcast.EventJoinRoom, map[string]string{"roomCode": "ZZZZ", "name": "Ann"})
	assert.Equal(t, "ZZZZ", p.expect(broadcast.EventRoomNotFound)["roomCode"])
}

func TestRejectedRequestsOnlyReachTheRequester(t *testing.T) {
	_, srv := setupServer(t)
	host, code := createRoom(t, srv)
	p, _ := joinRoom(t, srv, code, "Ann")

	p.send(broadcast.EventStartGame, map[string]string{"roomCode": code, "mode": "racer"})
	rejected := p.expect(broadcast.EventError)
	assert.Equal(t, broadcast.EventStartGame, rejected["event"])

	host.send(broadcast.EventStartGame, map[string]string{"roomCode": code, "mode": "tug_of_war"})
	odd := host.expect(broadcast.EventError)
	assert.Contains(t, odd["message"], "even")

	host.send(broadcast.EventJoinRoom, map[string]string{"roomCode": code})
	invalid := host.expect(broadcast.EventError)
	assert.Equal(t, broadcast.EventJoinRoom, invalid["event"])
}

func TestCreateRoomRateLimit(t *testing.T) {
	_, srv := setupServer(t)
	clientIdentity = func(*gin.Context) string { return "10.0.0.1" }

	createRoom(t, srv)
	second := dial(t, srv)
	second.send(broadcast.EventCreateRoom, nil)
	rejected := second.expect(broadcast.EventError)
	assert.Equal(t, broadcast.EventCreateRoom, rejected["event"])
	assert.Equal(t, 60.0, rejected["retryAfter"])
}

func TestCreateRoomRateLimitIgnoresForwardedFor(t *testing.T) {
	_, srv := setupServer(t)
	clientIdentity = remoteIdentity

	first := dialWith(t, srv, http.Header{"X-Forwarded-For": {"1.1.1.1"}})
	first.send(broadcast.EventCreateRoom, nil)
	first.expect(broadcast.EventRoomCreated)

	for _, ip := range []string{"2.2.2.2", "3.3.3.3"} {
		c := dialWith(t, srv, http.Header{"X-Forwarded-For": {ip}, "X-Real-Ip": {ip}})
		c.send(broadcast.EventCreateRoom, nil)
		rejected := c.expect(broadcast.EventError)
		assert.Equal(t, broadcast.EventCreateRoom, rejected["event"], ip)
		assert.Equal(t, 60.0, rejected["retryAfter"], ip)
	}
}

func TestHostReconnectKeepsRoom(t *testing.T) {
	ctx, srv := setupServer(t)
	host, code := createRoom(t, srv)
	p, id := joinRoom(t, srv, code, "Ann")

	require.NoError(t, host.ws.Close())
	require.Eventually(t, func() bool {
		r, ok := ctx.Registry.Get(code)
		return ok && r.HostDisconnected
	}, time.Second, 5*time.Millisecond)

	back := dial(t, srv)
	back.send(broadcast.EventReconnectRoom, map[string]string{"code": code})
	reconnected := back.expect(broadcast.EventRoomReconnected)
	room := reconnected["room"].(map[string]any)
	assert.Equal(t, false, room["hostDisconnected"])
	assert.Equal(t, "waiting", room["status"])
	require.Len(t, room["players"], 1)

	require.NoError(t, p.ws.Close())
	assert.Equal(t, id, back.expect(broadcast.EventPlayerDisconnected)["playerId"])

	again := dial(t, srv)
	again.send(broadcast.EventReconnectPlayer, map[string]string{"code": code, "playerId": id})
	assert.Equal(t, id, again.expect(broadcast.EventPlayerReconnected)["playerId"])
}

func TestRemovePlayerAndReturnToLobby(t *testing.T) {
	ctx, srv := setupServer(t)
	host, code := createRoom(t, srv)
	ann, annID := joinRoom(t, srv, code, "Ann")
	ben, benID := joinRoom(t, srv, code, "Ben")

	host.send(broadcast.EventStartGame, map[string]string{"roomCode": code, "mode": "racer"})
	host.expect(broadcast.EventGameStarted)
	ann.send(broadcast.EventPlayerReady, map[string]any{"roomCode": code, "playerId": annID})
	host.expect(broadcast.EventPlayerReadyStatus)

	// removing the only unready player completes the ready check
	host.send(broadcast.EventRemovePlayer, map[string]string{"roomCode": code, "playerId": benID})
	assert.Equal(t, "removed", ben.expect(broadcast.EventPlayerLeft)["reason"])
	host.expect(broadcast.EventAllPlayersReady)

	host.send(broadcast.EventReturnToLobby, map[string]string{"roomCode": code})
	back := host.expect(broadcast.EventReturnedToLobby)
	assert.Equal(t, "waiting", back["room"].(map[string]any)["status"])
	assert.Zero(t, ctx.Engine.Active())
}

func TestSweepHooksNotifyRoom(t *testing.T) {
	ctx, srv := setupServer(t)
	host, code := createRoom(t, srv)
	p, _ := joinRoom(t, srv, code, "Ann")

	hooks := ctx.SweepHooks()
	hooks.OnHostAway(code)
	assert.Equal(t, code, p.expect(broadcast.EventHostDisconnected)["roomCode"])

	ctx.Registry.Delete(code)
	hooks.OnRemoved(store.Removal{RoomCode: code, Reason: "host_timeout"})
	assert.Equal(t, "host_timeout", host.expect(broadcast.EventRoomClosed)["reason"])
	assert.Empty(t, ctx.Hub.Members(code))
}

func TestHTTPRoutes(t *testing.T) {
	ctx, srv := setupServer(t)
	_, code := createRoom(t, srv)
	router := NewRouter(ctx)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rooms":1`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms/"+code, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http://party.test/?room="+code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms/NOPE", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms/"+code+"/qr.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "\x89PNG"))
}

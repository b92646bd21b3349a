package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/voice-party/internal/broadcast"
	"github.com/aaronzipp/voice-party/internal/sim"
	"github.com/aaronzipp/voice-party/internal/speech"
	"github.com/aaronzipp/voice-party/internal/store"
	"github.com/aaronzipp/voice-party/internal/voice"
)

// Context holds shared application dependencies
type Context struct {
	Registry  *store.Registry
	Engine    *sim.Engine
	Speech    *speech.Manager
	Hub       *broadcast.Hub
	PublicURL string

	base   context.Context
	cancel context.CancelFunc

	voiceMu    sync.Mutex
	voiceRooms map[string]string // playerID -> room code of open speech streams
}

// Options configures NewContext
type Options struct {
	Store     store.Config
	Sim       sim.Config
	Speech    speech.Config
	Provider  speech.Provider
	PublicURL string
}

// NewContext wires the registry, engine, speech manager and hub together
func NewContext(opts Options) *Context {
	if opts.Provider == nil {
		opts.Provider = speech.TextProvider{}
	}
	ctx := &Context{
		Registry:   store.NewRegistry(opts.Store),
		Hub:        broadcast.NewHub(),
		PublicURL:  opts.PublicURL,
		voiceRooms: make(map[string]string),
	}
	ctx.base, ctx.cancel = context.WithCancel(context.Background())
	ctx.Engine = sim.NewEngine(opts.Sim, ctx, voice.NewMatcher())
	ctx.Speech = speech.NewManager(opts.Provider, opts.Speech)
	ctx.Speech.OnTranscript = ctx.handleTranscript
	ctx.Speech.OnDegraded = ctx.handleVoiceDegraded
	return ctx
}

// NewRouter registers every route
func NewRouter(ctx *Context) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn().Err(err).Msg("Failed to reset trusted proxies")
	}

	r.GET("/healthz", ctx.HandleHealth)
	r.GET("/ws", ctx.HandleWebSocket)

	api := r.Group("/api")
	api.GET("/rooms/:code", ctx.HandleRoomSummary)
	api.GET("/rooms/:code/qr.png", ctx.HandleRoomQR)
	return r
}

// HandleHealth reports liveness along with a few gauges
func (ctx *Context) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"rooms":            ctx.Registry.Count(),
		"sessions":         ctx.Engine.Active(),
		"rateLimitedHosts": ctx.Registry.Limiter().Len(),
	})
}

// Close stops every session and speech stream
func (ctx *Context) Close() {
	ctx.cancel()
	ctx.Engine.Close()
	ctx.Speech.Close()
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/voice-party/internal/config"
	"github.com/aaronzipp/voice-party/internal/handlers"
	"github.com/aaronzipp/voice-party/internal/logger"
	"github.com/aaronzipp/voice-party/internal/sim"
	"github.com/aaronzipp/voice-party/internal/speech"
	"github.com/aaronzipp/voice-party/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Setup("console", false)
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Setup(cfg.LogFormat, cfg.Debug)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	storeCfg := store.DefaultConfig()
	storeCfg.CreateCooldown = cfg.CreateCooldown
	storeCfg.HostGrace = cfg.HostGrace
	storeCfg.MaxAge = cfg.RoomMaxAge

	simCfg := sim.DefaultConfig()
	simCfg.TickRate = cfg.TickRate

	speechCfg := speech.Config{
		Attempts:      cfg.STTAttempts,
		Backoff:       cfg.STTBackoff,
		MaxFrameBytes: cfg.MaxAudioFrame,
	}

	app := handlers.NewContext(handlers.Options{
		Store:     storeCfg,
		Sim:       simCfg,
		Speech:    speechCfg,
		Provider:  speech.TextProvider{},
		PublicURL: cfg.PublicURL,
	})
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go app.Registry.Run(ctx, app.SweepHooks())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("public_url", cfg.PublicURL).
			Int("tick_rate", cfg.TickRate).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

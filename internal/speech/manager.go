package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/voice-party/internal/voice"
)

var (
	ErrUnavailable    = errors.New("speech recognition unavailable")
	ErrMalformedFrame = errors.New("malformed audio frame")
	ErrStreamClosed   = errors.New("speech stream closed")
)

// Config bounds retries and audio frames
type Config struct {
	Attempts      int
	Backoff       time.Duration
	MaxFrameBytes int
}

// DefaultConfig returns three attempts one second apart and 64 KiB frames
func DefaultConfig() Config {
	return Config{Attempts: 3, Backoff: time.Second, MaxFrameBytes: 64 << 10}
}

// Manager keeps at most one stream per player
type Manager struct {
	provider Provider
	cfg      Config

	// OnTranscript receives every finalized transcript
	OnTranscript func(playerID string, t voice.Transcript)
	// OnDegraded is called once all attempts to open a stream failed
	OnDegraded func(playerID string, err error)

	mu       sync.Mutex
	streams  map[string]*session
	starting map[string]*pending
}

type session struct {
	stream Stream
	done   chan struct{}
}

// pending is a Start still opening its stream. stopped is set under mu when
// Stop cancels it.
type pending struct {
	cancel  context.CancelFunc
	stopped bool
}

// NewManager creates a manager backed by provider
func NewManager(provider Provider, cfg Config) *Manager {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = 64 << 10
	}
	return &Manager{
		provider: provider,
		cfg:      cfg,
		streams:  make(map[string]*session),
		starting: make(map[string]*pending),
	}
}

// Start opens a stream for a player, retrying with a fixed backoff. When
// every attempt fails the player is reported as degraded and the game goes
// on without their voice. A Stop while Start is retrying cancels it quietly.
func (m *Manager) Start(ctx context.Context, playerID string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := &pending{cancel: cancel}

	m.mu.Lock()
	_, open := m.streams[playerID]
	_, busy := m.starting[playerID]
	if open || busy {
		m.mu.Unlock()
		return nil
	}
	m.starting[playerID] = p
	m.mu.Unlock()
	defer m.settle(playerID, p)

	var lastErr error
	for attempt := 1; attempt <= m.cfg.Attempts; attempt++ {
		stream, err := m.provider.Open(ctx, playerID)
		if err == nil {
			return m.register(playerID, stream, p)
		}
		lastErr = err
		if m.wasStopped(p) {
			return ErrStreamClosed
		}
		log.Warn().
			Err(err).
			Str("player_id", playerID).
			Int("attempt", attempt).
			Msg("Failed to open speech stream")

		if attempt == m.cfg.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			if m.wasStopped(p) {
				return ErrStreamClosed
			}
			return m.degraded(playerID, ctx.Err())
		case <-time.After(m.cfg.Backoff):
		}
	}
	return m.degraded(playerID, lastErr)
}

func (m *Manager) settle(playerID string, p *pending) {
	m.mu.Lock()
	if m.starting[playerID] == p {
		delete(m.starting, playerID)
	}
	m.mu.Unlock()
}

func (m *Manager) wasStopped(p *pending) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return p.stopped
}

func (m *Manager) degraded(playerID string, cause error) error {
	err := fmt.Errorf("%w: %w", ErrUnavailable, cause)
	if m.OnDegraded != nil {
		m.OnDegraded(playerID, err)
	}
	return err
}

// register keeps stream unless its Start was stopped meanwhile
func (m *Manager) register(playerID string, stream Stream, p *pending) error {
	s := &session{stream: stream, done: make(chan struct{})}

	m.mu.Lock()
	if p.stopped {
		m.mu.Unlock()
		_ = stream.Close()
		log.Debug().Str("player_id", playerID).Msg("Discarded speech stream opened after stop")
		return ErrStreamClosed
	}
	if _, exists := m.streams[playerID]; exists {
		m.mu.Unlock()
		_ = stream.Close()
		return nil
	}
	m.streams[playerID] = s
	m.mu.Unlock()

	go m.pump(playerID, s)
	log.Debug().Str("player_id", playerID).Msg("Speech stream opened")
	return nil
}

func (m *Manager) pump(playerID string, s *session) {
	defer close(s.done)
	for t := range s.stream.Transcripts() {
		if m.OnTranscript != nil {
			m.OnTranscript(playerID, t)
		}
	}

	m.mu.Lock()
	if m.streams[playerID] == s {
		delete(m.streams, playerID)
	}
	m.mu.Unlock()
}

// Feed forwards an audio frame. Empty, oversized and undeliverable frames
// are dropped without telling the player.
func (m *Manager) Feed(playerID string, frame []byte) {
	if len(frame) == 0 || len(frame) > m.cfg.MaxFrameBytes {
		return
	}
	m.mu.Lock()
	s, ok := m.streams[playerID]
	m.mu.Unlock()
	if !ok {
		return
	}
	if err := s.stream.Send(frame); err != nil {
		log.Debug().Err(err).Str("player_id", playerID).Msg("Dropped audio frame")
	}
}

// Stop closes a player's stream and cancels a Start still in progress.
// Stopping a player without a stream is a no-op.
func (m *Manager) Stop(playerID string) {
	m.mu.Lock()
	if p, ok := m.starting[playerID]; ok {
		p.stopped = true
		p.cancel()
		delete(m.starting, playerID)
	}
	s, ok := m.streams[playerID]
	delete(m.streams, playerID)
	m.mu.Unlock()
	if !ok {
		return
	}
	if err := s.stream.Close(); err != nil {
		log.Warn().Err(err).Str("player_id", playerID).Msg("Failed to close speech stream")
	}
}

// Restart replaces a player's stream, used when they reconnect
func (m *Manager) Restart(ctx context.Context, playerID string) error {
	m.Stop(playerID)
	return m.Start(ctx, playerID)
}

// Active reports whether a player has an open stream
func (m *Manager) Active(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.streams[playerID]
	return ok
}

// Close stops every stream and pending start
func (m *Manager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.streams)+len(m.starting))
	for id := range m.streams {
		ids = append(ids, id)
	}
	for id := range m.starting {
		if _, ok := m.streams[id]; !ok {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.Stop(id)
	}
}

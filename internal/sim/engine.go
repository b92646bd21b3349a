// Package sim runs the authoritative game sessions. Every room gets its own
// worker goroutine that owns the session; all mutations for that room are
// funnelled through the worker's inbox.
package sim

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/voice-party/internal/game"
	"github.com/aaronzipp/voice-party/internal/models"
	"github.com/aaronzipp/voice-party/internal/voice"
)

// Config tunes the session timings and the tick loop
type Config struct {
	TickRate      int
	ReadyDelay    time.Duration
	CountdownStep time.Duration
	CountdownFrom int
	TrackLength   float64
	InboxSize     int
	Seed          int64 // zero seeds from the clock
}

// DefaultConfig returns the production timings
func DefaultConfig() Config {
	return Config{
		TickRate:      60,
		ReadyDelay:    500 * time.Millisecond,
		CountdownStep: time.Second,
		CountdownFrom: 3,
		TrackLength:   100,
		InboxSize:     256,
	}
}

// Engine owns every active session, keyed by room code
type Engine struct {
	cfg     Config
	emitter Emitter
	matcher *voice.Matcher
	now     func() time.Time

	mu      sync.Mutex
	workers map[string]*worker

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine creates an engine that reports to emitter
func NewEngine(cfg Config, emitter Emitter, matcher *voice.Matcher) *Engine {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 256
	}
	if cfg.TrackLength <= 0 {
		cfg.TrackLength = 100
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if emitter == nil {
		emitter = EmitterFunc(func(Event) {})
	}
	if matcher == nil {
		matcher = voice.NewMatcher()
	}
	return &Engine{
		cfg:     cfg,
		emitter: emitter,
		matcher: matcher,
		now:     time.Now,
		workers: make(map[string]*worker),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// CreateSession builds a fresh session for a room, tearing down any previous
// one first. The session waits for the ready gate before it ticks.
func (e *Engine) CreateSession(code string, mode models.GameMode, players []models.Player) (*models.GameSession, error) {
	session, err := newSession(code, mode, players, e.shuffledWords(), e.cfg.TrackLength)
	if err != nil {
		return nil, err
	}

	w := newWorker(e, code, session)
	e.mu.Lock()
	old := e.workers[code]
	e.workers[code] = w
	e.mu.Unlock()
	if old != nil {
		old.halt()
	}
	go w.run()

	log.Info().
		Str("room_code", code).
		Str("mode", string(mode)).
		Int("players", len(players)).
		Msg("Created game session")
	return session.Clone(), nil
}

// shuffledWords returns the trigger-word pool in a fresh random order
func (e *Engine) shuffledWords() []string {
	words := game.TriggerWords()
	e.rngMu.Lock()
	e.rng.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
	e.rngMu.Unlock()
	return words
}

// UpdateReadiness feeds the ready gate. allReady is evaluated on the room's
// worker, so toggles that race each other are judged against the latest
// committed ready states rather than the order their posts arrive in.
func (e *Engine) UpdateReadiness(code string, allReady func() bool) bool {
	return e.post(code, func(w *worker) { w.readiness(allReady()) })
}

// SubmitTranscript classifies a transcript against the player's assigned
// word on the room's worker and applies the result
func (e *Engine) SubmitTranscript(code, playerID string, t voice.Transcript) bool {
	return e.post(code, func(w *worker) {
		word, _ := w.session.AssignedWord(playerID)
		if action, ok := e.matcher.Match(t, word); ok {
			w.act(playerID, action)
		}
	})
}

// SubmitAction applies an already scored action
func (e *Engine) SubmitAction(code, playerID string, action voice.ScoredAction) bool {
	return e.post(code, func(w *worker) { w.act(playerID, action) })
}

// StopTicking halts a room's tick timer. Stopping a stopped or unknown room
// is a no-op.
func (e *Engine) StopTicking(code string) {
	e.post(code, func(w *worker) { w.stopTicker() })
}

// Destroy stops every timer of a room and releases its session. Destroying
// an unknown room is a no-op.
func (e *Engine) Destroy(code string) {
	e.mu.Lock()
	w, ok := e.workers[code]
	delete(e.workers, code)
	e.mu.Unlock()
	if ok {
		w.halt()
		log.Debug().Str("room_code", code).Msg("Destroyed game session")
	}
}

// Snapshot returns a copy of a room's session
func (e *Engine) Snapshot(code string) (*models.GameSession, bool) {
	reply := make(chan *models.GameSession, 1)
	w, ok := e.worker(code)
	if !ok || !w.post(func(w *worker) { reply <- w.session.Clone() }) {
		return nil, false
	}
	select {
	case s := <-reply:
		return s, true
	case <-w.done:
		return nil, false
	}
}

// Active reports the number of rooms with a session
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.workers)
}

// Close destroys every session
func (e *Engine) Close() {
	e.mu.Lock()
	codes := make([]string, 0, len(e.workers))
	for code := range e.workers {
		codes = append(codes, code)
	}
	e.mu.Unlock()
	for _, code := range codes {
		e.Destroy(code)
	}
}

func (e *Engine) worker(code string) (*worker, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, ok := e.workers[code]
	return w, ok
}

func (e *Engine) post(code string, fn func(*worker)) bool {
	w, ok := e.worker(code)
	if !ok {
		return false
	}
	return w.post(fn)
}

// forget drops w from the registry once it has ended on its own
func (e *Engine) forget(w *worker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.workers[w.code] == w {
		delete(e.workers, w.code)
	}
}

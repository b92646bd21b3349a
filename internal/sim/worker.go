package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/voice-party/internal/models"
	"github.com/aaronzipp/voice-party/internal/voice"
)

// worker is the single owner of one room's session. Nothing outside run
// touches session or the timers.
type worker struct {
	engine  *Engine
	code    string
	session *models.GameSession

	inbox    chan func(*worker)
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	ticker *time.Ticker
	tickC  <-chan time.Time

	// gate fires ReadyDelay after everyone is ready
	gate  *time.Timer
	gateC <-chan time.Time

	// countdown fires once per step; count is the next value to emit
	countdown  *time.Timer
	countdownC <-chan time.Time
	count      int

	finished bool
}

func newWorker(e *Engine, code string, session *models.GameSession) *worker {
	return &worker{
		engine:  e,
		code:    code,
		session: session,
		inbox:   make(chan func(*worker), e.cfg.InboxSize),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// post queues fn for the worker. It fails once the worker has exited.
func (w *worker) post(fn func(*worker)) bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case w.inbox <- fn:
		return true
	case <-w.done:
		return false
	}
}

// halt stops the worker and waits for it to release its timers
func (w *worker) halt() {
	w.stopOnce.Do(func() { close(w.quit) })
	<-w.done
}

func (w *worker) run() {
	defer close(w.done)
	defer w.stopTimers()
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("room_code", w.code).
				Interface("panic", r).
				Msg("Game session crashed")
			w.engine.forget(w)
			w.emit(Event{Type: EventAborted, Reason: fmt.Sprint(r)})
		}
	}()

	for !w.finished {
		// quit wins over pending work so a destroyed room never runs stale timers
		select {
		case <-w.quit:
			return
		default:
		}

		select {
		case <-w.quit:
			return
		case fn := <-w.inbox:
			fn(w)
		case <-w.gateC:
			w.gate, w.gateC = nil, nil
			w.beginCountdown()
		case <-w.countdownC:
			w.countdownStep()
		case <-w.tickC:
			w.tick()
		}
	}
}

func (w *worker) emit(ev Event) {
	ev.RoomCode = w.code
	w.engine.emitter.Emit(ev)
}

// readiness arms the ready gate when everyone is ready and cancels it when
// someone drops out before it fires
func (w *worker) readiness(allReady bool) {
	if w.session.Status != models.SessionWaiting {
		return
	}
	if !allReady {
		if w.gate != nil {
			w.gate.Stop()
			w.gate, w.gateC = nil, nil
			log.Debug().Str("room_code", w.code).Msg("Ready gate cancelled")
		}
		return
	}
	if w.gate != nil {
		return
	}
	w.emit(Event{Type: EventAllReady})
	w.gate = time.NewTimer(w.engine.cfg.ReadyDelay)
	w.gateC = w.gate.C
}

func (w *worker) beginCountdown() {
	w.session.Status = models.SessionCountdown
	w.count = w.engine.cfg.CountdownFrom
	w.emit(Event{Type: EventCountdown, Count: w.count})
	w.count--
	w.countdown = time.NewTimer(w.engine.cfg.CountdownStep)
	w.countdownC = w.countdown.C
}

// countdownStep emits the next count. One step after zero the session starts.
func (w *worker) countdownStep() {
	if w.count < 0 {
		w.countdown, w.countdownC = nil, nil
		w.start()
		return
	}
	w.emit(Event{Type: EventCountdown, Count: w.count})
	w.count--
	w.countdown.Reset(w.engine.cfg.CountdownStep)
}

func (w *worker) start() {
	now := w.engine.now()
	w.session.Status = models.SessionPlaying
	w.session.StartTime = &now
	w.emit(Event{Type: EventStarted, Snapshot: w.session.Clone()})

	w.ticker = time.NewTicker(time.Second / time.Duration(w.engine.cfg.TickRate))
	w.tickC = w.ticker.C
	log.Info().Str("room_code", w.code).Msg("Game started")
}

func (w *worker) tick() {
	if w.session.Status != models.SessionPlaying {
		return
	}

	var (
		winner string
		won    bool
	)
	switch w.session.Mode {
	case models.ModeRacer:
		if w.session.Racer == nil {
			panic("racer session without racer state")
		}
		stepRacer(w.session.Racer, w.session.Order)
		w.syncRacerPositions()
		winner, won = racerWinner(w.session.Racer, w.session.Order)
	case models.ModeTugOfWar:
		if w.session.Tug == nil {
			panic("tug of war session without tug state")
		}
		winner, won = tugWinner(w.session.Tug)
	default:
		panic(fmt.Sprintf("unknown game mode %q", w.session.Mode))
	}

	w.emit(Event{Type: EventState, Snapshot: w.session.Clone()})
	if won {
		w.finish(winner)
	}
}

// syncRacerPositions mirrors track positions into the shared player state
func (w *worker) syncRacerPositions() {
	for _, id := range w.session.Order {
		if p, ok := w.session.Players[id]; ok {
			p.Position = &models.Position{X: w.session.Racer.Position[id]}
		}
	}
}

func (w *worker) finish(winner string) {
	w.stopTicker()
	now := w.engine.now()
	w.session.Status = models.SessionFinished
	w.session.EndTime = &now
	w.session.Winner = winner

	// forget before emitting so handlers observing the end see no session
	w.engine.forget(w)
	w.emit(Event{Type: EventEnded, Snapshot: w.session.Clone()})
	w.finished = true

	log.Info().
		Str("room_code", w.code).
		Str("winner", winner).
		Msg("Game ended")
}

// act announces and applies one scored action. Only actions from session
// players during play count.
func (w *worker) act(playerID string, action voice.ScoredAction) {
	if w.session.Status != models.SessionPlaying {
		return
	}
	p, ok := w.session.Players[playerID]
	if !ok {
		return
	}
	w.emit(Event{Type: EventCommand, PlayerID: playerID, Action: action})
	if action.Score <= 0 {
		return
	}

	switch w.session.Mode {
	case models.ModeRacer:
		applyRacer(w.session.Racer, playerID, action.Score)
	case models.ModeTugOfWar:
		applyTug(w.session.Tug, playerID, action.Score)
	}
	p.Score += action.Score
}

func (w *worker) stopTicker() {
	if w.ticker != nil {
		w.ticker.Stop()
		w.ticker, w.tickC = nil, nil
	}
}

func (w *worker) stopTimers() {
	w.stopTicker()
	if w.gate != nil {
		w.gate.Stop()
		w.gate, w.gateC = nil, nil
	}
	if w.countdown != nil {
		w.countdown.Stop()
		w.countdown, w.countdownC = nil, nil
	}
}

package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Hooks are called from the sweep goroutine
type Hooks struct {
	OnRemoved  func(Removal)
	OnHostAway func(code string)
}

// Run drives the stale-room sweep, the host-away scan and limiter pruning
// until ctx is cancelled
func (s *Registry) Run(ctx context.Context, hooks Hooks) {
	sweep := time.NewTicker(s.cfg.SweepInterval)
	defer sweep.Stop()
	notice := time.NewTicker(s.cfg.NoticeInterval)
	defer notice.Stop()
	prune := time.NewTicker(s.cfg.PruneInterval)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			for _, removal := range s.CollectStale(s.clock()) {
				log.Info().
					Str("room_code", removal.RoomCode).
					Str("reason", removal.Reason).
					Int("released", len(removal.ConnIDs)).
					Msg("Cleaned up stale room")
				if hooks.OnRemoved != nil {
					hooks.OnRemoved(removal)
				}
			}
		case <-notice.C:
			for _, code := range s.HostDisconnectNotices(s.clock()) {
				log.Debug().Str("room_code", code).Msg("Host away past notice threshold")
				if hooks.OnHostAway != nil {
					hooks.OnHostAway(code)
				}
			}
		case <-prune.C:
			if n := s.limiter.Prune(s.clock()); n > 0 {
				log.Debug().Int("pruned", n).Msg("Pruned room creation limiter")
			}
		}
	}
}

func (s *Registry) clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

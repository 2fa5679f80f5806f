// internal/game/timers.go
package game

import (
	"time"
)

type timerKind string

const (
	timerAutoOpen  timerKind = "auto_open"
	timerAutoClose timerKind = "auto_close"
)

// scheduleAutoplay arms the hostless timer for kind, replacing any pending one.
// Assumes lock is held.
func (g *Game) scheduleAutoplay(kind timerKind) {
	if g.Mode != ModeHostless || g.AutoplayDelay <= 0 || g.ended {
		return
	}
	g.supersedeTimer()

	epoch := g.state.timerEpoch
	expires := time.Now().Add(g.AutoplayDelay).UnixMilli()
	g.state.TimerExpires = &expires
	g.timer = time.AfterFunc(g.AutoplayDelay, func() {
		g.fireTimer(kind, epoch)
	})
}

// supersedeTimer invalidates whatever timer is pending. A callback that already fired and is
// waiting on the lock sees a newer epoch and does nothing. Assumes lock is held.
func (g *Game) supersedeTimer() {
	g.state.timerEpoch++
	g.state.TimerExpires = nil
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (g *Game) fireTimer(kind timerKind, epoch uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.state
	if g.ended || s.timerEpoch != epoch {
		g.Log.Debugf("Stale %s timer (epoch %d, current %d). Ignoring.", kind, epoch, s.timerEpoch)
		return
	}
	g.timer = nil
	s.TimerExpires = nil

	switch kind {
	case timerAutoOpen:
		if s.StateType != PhaseClue || s.BuzzersOpen || s.BuzzedPlayer != "" {
			return
		}
		s.BuzzersOpen = true
		g.scheduleAutoplay(timerAutoClose)
	case timerAutoClose:
		if !s.BuzzersOpen {
			return
		}
		s.BuzzersOpen = false
	}

	g.logAction("", "timer_"+string(kind), nil)
	g.broadcast()
}

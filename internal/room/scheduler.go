package room

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTurnTimeout applies when no positive timeout is configured.
const DefaultTurnTimeout = 15 * time.Second

// SchedulerState is the lifecycle state of the turn timer.
type SchedulerState int

const (
	StateIdle SchedulerState = iota
	StateArmed
	StateFired
	StateCancelled
)

func (s SchedulerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateFired:
		return "fired"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// TurnScheduler holds the single outstanding turn timer of a room.
//
// The timer callback runs on its own goroutine and must take the room lock before
// calling Expire. Every Arm bumps the generation, so a callback that lost the race
// against a client move (or a cancel) finds its generation stale and does nothing.
// All methods must be called with the room lock held.
type TurnScheduler struct {
	clock    clockwork.Clock
	timeout  time.Duration
	timer    clockwork.Timer
	gen      uint64
	state    SchedulerState
	deadline time.Time
}

// NewTurnScheduler returns an idle scheduler. A nil clock means the real clock.
func NewTurnScheduler(clock clockwork.Clock, timeout time.Duration) *TurnScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if timeout <= 0 {
		timeout = DefaultTurnTimeout
	}
	return &TurnScheduler{clock: clock, timeout: timeout}
}

// Arm replaces any pending timer with a fresh one. onExpire receives the
// generation it was armed with.
func (s *TurnScheduler) Arm(onExpire func(gen uint64)) time.Time {
	s.stopTimer()
	s.gen++
	gen := s.gen
	s.state = StateArmed
	s.deadline = s.clock.Now().Add(s.timeout)
	s.timer = s.clock.AfterFunc(s.timeout, func() { onExpire(gen) })
	return s.deadline
}

// Cancel disarms the pending timer, if any, without firing it.
func (s *TurnScheduler) Cancel() {
	s.stopTimer()
	s.gen++
	if s.state == StateArmed {
		s.state = StateCancelled
	}
}

// Expire runs apply for a fired timer of generation gen. It reports false and
// does nothing when the timer was replaced or cancelled in the meantime.
func (s *TurnScheduler) Expire(gen uint64, apply func()) bool {
	if gen != s.gen || s.state != StateArmed {
		return false
	}
	s.state = StateFired
	s.timer = nil
	apply()
	// apply usually re-arms; if it ended the match instead we are done
	if s.state == StateFired {
		s.state = StateIdle
	}
	return true
}

func (s *TurnScheduler) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *TurnScheduler) State() SchedulerState  { return s.state }
func (s *TurnScheduler) Deadline() time.Time    { return s.deadline }
func (s *TurnScheduler) Timeout() time.Duration { return s.timeout }
func (s *TurnScheduler) Generation() uint64     { return s.gen }

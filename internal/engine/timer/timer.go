// Package timer provides game-time timers driven by the frame loop.
//
// A Scheduler never starts goroutines: callbacks run inside Advance, on the
// same thread that updates the scene. Cancelling a Handle removes it from the
// queue, so a cancelled callback can never run.
package timer

import (
	"sort"
	"time"
)

// Handle is an owned reference to a scheduled callback.
type Handle struct {
	s        *Scheduler
	deadline time.Duration
	seq      uint64
	fn       func()
	active   bool
}

// Active reports whether the callback is still pending.
func (h *Handle) Active() bool {
	return h != nil && h.active
}

// Cancel removes the callback from its scheduler. Safe to call on nil,
// fired or already cancelled handles.
func (h *Handle) Cancel() {
	if h == nil || !h.active {
		return
	}
	h.active = false
	h.s.remove(h)
}

// Remaining returns the game time left before the callback fires.
func (h *Handle) Remaining() time.Duration {
	if !h.Active() {
		return 0
	}
	return h.deadline - h.s.now
}

// Scheduler orders pending callbacks by deadline.
type Scheduler struct {
	now     time.Duration
	seq     uint64
	pending []*Handle
	stopped bool
}

// NewScheduler creates a scheduler at game time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the elapsed game time.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Len returns the number of pending callbacks.
func (s *Scheduler) Len() int {
	return len(s.pending)
}

// After schedules fn to run once d of game time has elapsed.
// On a stopped scheduler the returned handle is inactive.
func (s *Scheduler) After(d time.Duration, fn func()) *Handle {
	if d < 0 {
		d = 0
	}
	h := &Handle{s: s, deadline: s.now + d, fn: fn}
	if s.stopped {
		return h
	}
	s.seq++
	h.seq = s.seq
	h.active = true

	// Keep pending sorted by (deadline, seq).
	i := sort.Search(len(s.pending), func(i int) bool {
		p := s.pending[i]
		return p.deadline > h.deadline || (p.deadline == h.deadline && p.seq > h.seq)
	})
	s.pending = append(s.pending, nil)
	copy(s.pending[i+1:], s.pending[i:])
	s.pending[i] = h
	return h
}

// Advance moves game time forward by dt and runs every callback that is due.
// Callbacks scheduled from inside a callback fire in the same call when their
// deadline has already passed.
func (s *Scheduler) Advance(dt time.Duration) {
	if s.stopped {
		return
	}
	if dt > 0 {
		s.now += dt
	}
	for len(s.pending) > 0 && !s.stopped {
		h := s.pending[0]
		if h.deadline > s.now {
			return
		}
		s.pending = s.pending[1:]
		h.active = false
		h.fn()
	}
}

// Stop cancels every pending callback. Later After calls return inactive handles.
func (s *Scheduler) Stop() {
	for _, h := range s.pending {
		h.active = false
	}
	s.pending = nil
	s.stopped = true
}

// Stopped reports whether Stop was called.
func (s *Scheduler) Stopped() bool {
	return s.stopped
}

func (s *Scheduler) remove(h *Handle) {
	for i, p := range s.pending {
		if p == h {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

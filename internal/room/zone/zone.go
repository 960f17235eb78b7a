// Package zone implements the room's clickable regions. A zone either
// navigates immediately or opens its door and navigates after a fixed delay.
package zone

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/virtual-room/internal/engine/picking"
	"github.com/Faultbox/virtual-room/internal/engine/timer"
	"github.com/Faultbox/virtual-room/internal/logger"
	"github.com/Faultbox/virtual-room/internal/navigation"
	"github.com/Faultbox/virtual-room/internal/room/door"
)

// Kind selects what a click does.
type Kind int

const (
	Direct Kind = iota
	DoorGated
)

func (k Kind) String() string {
	switch k {
	case Direct:
		return "direct"
	case DoorGated:
		return "door"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a config value to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "direct":
		return Direct, nil
	case "door":
		return DoorGated, nil
	default:
		return 0, fmt.Errorf("unknown zone kind %q", s)
	}
}

// Zone is one clickable region. Door is only meaningful for DoorGated zones.
type Zone struct {
	Index   int
	Kind    Kind
	Door    int
	Box     picking.AABB
	Hovered bool
	Pressed bool
}

// DefaultDelay is the pause between opening a door and navigating through it.
const DefaultDelay = time.Second

// Set owns every zone, their targets and the deferred navigations they schedule.
type Set struct {
	zones   []Zone
	targets []navigation.Target
	doors   *door.Controller
	sched   *timer.Scheduler
	nav     navigation.Navigator
	delay   time.Duration

	pending []*timer.Handle
	closed  bool
	log     *zap.Logger
}

// NewSet creates a zone set. Zone indices are reassigned to their slice position.
func NewSet(zones []Zone, doors *door.Controller, sched *timer.Scheduler, nav navigation.Navigator, delay time.Duration) *Set {
	s := &Set{
		zones: make([]Zone, len(zones)),
		doors: doors,
		sched: sched,
		nav:   nav,
		delay: delay,
		log:   logger.Named("zone"),
	}
	for i, z := range zones {
		z.Index = i
		z.Hovered = false
		z.Pressed = false
		s.zones[i] = z
	}
	s.targets = make([]navigation.Target, len(zones))
	return s
}

// SetTargets binds navigation targets by zone index. Missing entries stay absent.
func (s *Set) SetTargets(targets []navigation.Target) {
	for i := range s.targets {
		if i < len(targets) {
			s.targets[i] = targets[i]
		} else {
			s.targets[i] = navigation.None
		}
	}
}

// Target returns the target bound to a zone.
func (s *Set) Target(index int) navigation.Target {
	if index < 0 || index >= len(s.targets) {
		return navigation.None
	}
	return s.targets[index]
}

// Activate performs a zone's click action.
//
// Direct zones navigate now and return ErrMissingTarget when no target is
// bound. DoorGated zones ask their door to open; when the door accepts,
// navigation is scheduled after the fixed delay regardless of how far the
// animation has progressed. A refused door schedules nothing.
func (s *Set) Activate(index int) error {
	if s.closed || index < 0 || index >= len(s.zones) {
		return nil
	}
	z := s.zones[index]

	switch z.Kind {
	case Direct:
		t := s.targets[index]
		if !t.OK {
			err := fmt.Errorf("zone %d: %w", index, navigation.ErrMissingTarget)
			s.log.Warn("activation without target", zap.Int("zone", index), zap.Error(err))
			return err
		}
		s.log.Info("navigating", zap.Int("zone", index), zap.String("url", t.URL))
		return s.navigate(t.URL)

	case DoorGated:
		if s.doors == nil || !s.doors.Activate(z.Door) {
			return nil
		}
		var h *timer.Handle
		h = s.sched.After(s.delay, func() {
			s.forget(h)
			s.deferred(index)
		})
		s.pending = append(s.pending, h)
		s.log.Debug("navigation deferred", zap.Int("zone", index), zap.Duration("delay", s.delay))
	}
	return nil
}

func (s *Set) deferred(index int) {
	t := s.targets[index]
	if !t.OK {
		s.log.Warn("deferred navigation without target", zap.Int("zone", index), zap.Error(navigation.ErrMissingTarget))
		return
	}
	s.log.Info("navigating through door", zap.Int("zone", index), zap.String("url", t.URL))
	if err := s.navigate(t.URL); err != nil {
		s.log.Error("navigation failed", zap.Int("zone", index), zap.Error(err))
	}
}

func (s *Set) navigate(u string) error {
	if s.nav == nil {
		return nil
	}
	if err := s.nav.Navigate(u); err != nil {
		return fmt.Errorf("navigate %q: %w", u, err)
	}
	return nil
}

func (s *Set) forget(h *timer.Handle) {
	for i, p := range s.pending {
		if p == h {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// Pending returns the number of scheduled navigations.
func (s *Set) Pending() int {
	return len(s.pending)
}

// Hover marks a zone hovered and clears the others. A negative index clears all.
func (s *Set) Hover(index int) {
	for i := range s.zones {
		s.zones[i].Hovered = i == index
	}
}

// Unhover clears hover and press state.
func (s *Set) Unhover() {
	for i := range s.zones {
		s.zones[i].Hovered = false
		s.zones[i].Pressed = false
	}
}

// Hovered returns the hovered zone index, or -1.
func (s *Set) Hovered() int {
	for i, z := range s.zones {
		if z.Hovered {
			return i
		}
	}
	return -1
}

// Press marks a zone pressed until Release.
func (s *Set) Press(index int) {
	for i := range s.zones {
		s.zones[i].Pressed = i == index
	}
}

// Release clears the pressed flag and returns the zone that was pressed, or -1.
func (s *Set) Release() int {
	pressed := -1
	for i := range s.zones {
		if s.zones[i].Pressed {
			pressed = i
		}
		s.zones[i].Pressed = false
	}
	return pressed
}

// Pick returns the nearest zone hit by the ray.
func (s *Set) Pick(r picking.Ray) (int, bool) {
	best := -1
	var bestT float32
	for i, z := range s.zones {
		t, hit := r.IntersectAABB(z.Box)
		if !hit {
			continue
		}
		if best < 0 || t < bestT {
			best, bestT = i, t
		}
	}
	return best, best >= 0
}

// Len returns the number of zones.
func (s *Set) Len() int {
	return len(s.zones)
}

// Zone returns a copy of a zone.
func (s *Set) Zone(index int) Zone {
	return s.zones[index]
}

// Zones returns a copy of every zone.
func (s *Set) Zones() []Zone {
	out := make([]Zone, len(s.zones))
	copy(out, s.zones)
	return out
}

// Close cancels every deferred navigation. Further activations are ignored.
func (s *Set) Close() {
	for _, h := range s.pending {
		h.Cancel()
	}
	s.pending = nil
	s.closed = true
	s.Unhover()
}

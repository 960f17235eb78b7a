// Package door animates the room's door panels.
//
// All panels share one transition lock and one cooldown timer: while any door
// is rotating or cooling down, activations of every door are ignored, and the
// cooldown expiry swings every panel back to closed.
package door

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/virtual-room/internal/engine/scene"
	"github.com/Faultbox/virtual-room/internal/engine/timer"
	"github.com/Faultbox/virtual-room/internal/logger"
)

// State is a panel's animation state.
type State int

const (
	Idle State = iota
	Rotating
	Cooldown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rotating:
		return "rotating"
	case Cooldown:
		return "cooldown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Panel is one door's animation state.
type Panel struct {
	Index  int
	Angle  float64 // Radians, 0 is closed
	Target float64 // Radians, fully open
	State  State
	Active bool
	Node   scene.NodeHandle
}

// Advance performs one animation tick. Only Rotating panels move; a panel that
// reaches its target snaps to it and enters Cooldown.
func Advance(p Panel, step float64) Panel {
	if p.State != Rotating {
		return p
	}
	if p.Target < p.Angle {
		p.Angle -= step
		if p.Angle <= p.Target {
			p.Angle = p.Target
			p.State = Cooldown
		}
	} else {
		p.Angle += step
		if p.Angle >= p.Target {
			p.Angle = p.Target
			p.State = Cooldown
		}
	}
	return p
}

// Rotator applies a panel angle to its scene node.
type Rotator interface {
	SetRotationY(h scene.NodeHandle, radians float64)
}

// Config holds the animation policy.
type Config struct {
	Step     float64 // Radians per tick
	Target   float64 // Radians
	Cooldown time.Duration
}

// DefaultConfig returns 2.9 degrees per tick toward -120 degrees with a 2 second cooldown.
func DefaultConfig() Config {
	return Config{
		Step:     mgl64.DegToRad(2.9),
		Target:   mgl64.DegToRad(-120),
		Cooldown: 2 * time.Second,
	}
}

// Controller drives every door panel.
type Controller struct {
	cfg     Config
	panels  []Panel
	sched   *timer.Scheduler
	rotator Rotator

	locked   bool
	cooldown *timer.Handle
	closed   bool

	// OnOpened is called when a panel reaches its target.
	OnOpened func(index int)

	log *zap.Logger
}

// NewController creates count closed panels. rot may be nil until the scene loads.
func NewController(cfg Config, count int, sched *timer.Scheduler, rot Rotator) *Controller {
	c := &Controller{
		cfg:     cfg,
		panels:  make([]Panel, count),
		sched:   sched,
		rotator: rot,
		log:     logger.Named("door"),
	}
	for i := range c.panels {
		c.panels[i] = Panel{Index: i, Target: cfg.Target}
	}
	return c
}

// SetRotator attaches the scene once it exists.
func (c *Controller) SetRotator(rot Rotator) {
	c.rotator = rot
}

// Bind attaches a resolved scene node to a panel. An absent handle keeps the
// panel animating logically without visible motion.
func (c *Controller) Bind(index int, h scene.NodeHandle) {
	if index < 0 || index >= len(c.panels) {
		return
	}
	c.panels[index].Node = h
	if !h.OK() {
		c.log.Debug("door node unresolved, animation will be invisible", zap.Int("index", index))
		return
	}
	c.apply(c.panels[index])
}

// Activate starts opening a panel. It is ignored while the transition lock is
// held by any panel, for unknown indices, and after Close.
func (c *Controller) Activate(index int) bool {
	if c.closed || index < 0 || index >= len(c.panels) {
		return false
	}
	if c.locked {
		c.log.Debug("activation ignored, transition in progress", zap.Int("index", index))
		return false
	}

	p := &c.panels[index]
	p.State = Rotating
	p.Active = true
	c.locked = true

	c.log.Info("door opening", zap.Int("index", index))
	return true
}

// Update advances every rotating panel by one tick.
func (c *Controller) Update() {
	if c.closed {
		return
	}
	for i := range c.panels {
		if c.panels[i].State != Rotating {
			continue
		}
		c.panels[i] = Advance(c.panels[i], c.cfg.Step)
		c.apply(c.panels[i])

		if c.panels[i].State == Cooldown {
			c.opened(i)
		}
	}
}

func (c *Controller) opened(index int) {
	c.log.Info("door open, cooling down", zap.Int("index", index), zap.Duration("cooldown", c.cfg.Cooldown))
	if !c.cooldown.Active() {
		c.cooldown = c.sched.After(c.cfg.Cooldown, c.reset)
	}
	if c.OnOpened != nil {
		c.OnOpened(index)
	}
}

// reset closes every panel and releases the lock.
func (c *Controller) reset() {
	c.cooldown = nil
	for i := range c.panels {
		p := &c.panels[i]
		p.Angle = 0
		p.State = Idle
		p.Active = false
		c.apply(*p)
	}
	c.locked = false
	c.log.Debug("doors reset")
}

// Close cancels a pending cooldown and clears the activation flags without
// moving the panels.
func (c *Controller) Close() {
	c.cooldown.Cancel()
	c.cooldown = nil
	for i := range c.panels {
		c.panels[i].Active = false
		c.panels[i].State = Idle
	}
	c.locked = false
	c.closed = true
}

// Locked reports whether a transition is in progress.
func (c *Controller) Locked() bool {
	return c.locked
}

// Len returns the number of panels.
func (c *Controller) Len() int {
	return len(c.panels)
}

// Panel returns a copy of a panel's state.
func (c *Controller) Panel(index int) Panel {
	return c.panels[index]
}

func (c *Controller) apply(p Panel) {
	if c.rotator == nil || !p.Node.OK() {
		return
	}
	c.rotator.SetRotationY(p.Node, p.Angle)
}

package door

import (
	"math"
	"testing"
	"time"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/virtual-room/internal/engine/scene"
	"github.com/Faultbox/virtual-room/internal/engine/timer"
)

const tick = 16 * time.Millisecond

type rotations struct {
	calls map[int][]float64
}

func (r *rotations) SetRotationY(h scene.NodeHandle, radians float64) {
	if r.calls == nil {
		r.calls = make(map[int][]float64)
	}
	r.calls[h.Index()] = append(r.calls[h.Index()], radians)
}

func newRoom(t *testing.T) (*Controller, *timer.Scheduler, *scene.Scene) {
	t.Helper()
	s := scene.New(&gltf.Document{Nodes: []*gltf.Node{{Name: "door_0"}, {Name: "door_1"}}})
	sched := timer.NewScheduler()
	c := NewController(DefaultConfig(), 2, sched, s)
	c.Bind(0, s.Resolve("door_0"))
	c.Bind(1, s.Resolve("door_1"))
	return c, sched, s
}

// frame runs one frame: timers first, then the animation tick.
func frame(c *Controller, sched *timer.Scheduler) {
	sched.Advance(tick)
	c.Update()
}

func TestAdvanceSnapsToTarget(t *testing.T) {
	cfg := DefaultConfig()
	p := Panel{Target: cfg.Target, State: Rotating}

	ticks := 0
	for p.State == Rotating {
		p = Advance(p, cfg.Step)
		ticks++
		if p.Angle < p.Target || p.Angle > 0 {
			t.Fatalf("angle %v left [target, 0] at tick %d", p.Angle, ticks)
		}
		if ticks > 100 {
			t.Fatal("never reached target")
		}
	}

	// 120 / 2.9 = 41.4: 41 full steps, the 42nd snaps
	if ticks != 42 {
		t.Errorf("expected arrival on tick 42, got %d", ticks)
	}
	if p.Angle != p.Target {
		t.Errorf("expected exact snap to %v, got %v", p.Target, p.Angle)
	}
	if p.State != Cooldown {
		t.Errorf("expected cooldown, got %v", p.State)
	}
}

func TestAdvanceIgnoresNonRotating(t *testing.T) {
	for _, s := range []State{Idle, Cooldown} {
		p := Panel{Angle: -1, Target: -2, State: s}
		if got := Advance(p, 0.5); got != p {
			t.Errorf("%v panel changed: %+v", s, got)
		}
	}
}

func TestAdvancePositiveTarget(t *testing.T) {
	p := Panel{Target: 1, State: Rotating}
	p = Advance(p, 0.6)
	p = Advance(p, 0.6)
	if p.Angle != 1 || p.State != Cooldown {
		t.Errorf("expected snap to 1, got %+v", p)
	}
}

func TestActivateGuards(t *testing.T) {
	c, sched, _ := newRoom(t)

	if !c.Activate(0) {
		t.Fatal("activation from idle should be accepted")
	}
	if c.Panel(0).State != Rotating || !c.Panel(0).Active {
		t.Errorf("expected rotating active panel, got %+v", c.Panel(0))
	}

	// Rotating: both doors locked out
	if c.Activate(0) || c.Activate(1) {
		t.Error("activation while rotating should be ignored")
	}
	if c.Panel(1).State != Idle || c.Panel(1).Active {
		t.Errorf("other panel changed: %+v", c.Panel(1))
	}

	for c.Panel(0).State == Rotating {
		frame(c, sched)
	}

	// Cooldown: still locked
	if c.Activate(0) || c.Activate(1) {
		t.Error("activation during cooldown should be ignored")
	}
	if c.Activate(-1) || c.Activate(2) {
		t.Error("unknown indices should be ignored")
	}
}

func TestFullCycleResetsBothPanels(t *testing.T) {
	c, sched, s := newRoom(t)

	var opened []int
	c.OnOpened = func(i int) { opened = append(opened, i) }

	c.Activate(0)
	for i := 0; i < 41; i++ {
		frame(c, sched)
	}
	if c.Panel(0).State != Rotating {
		t.Fatalf("expected still rotating after 41 ticks, got %v", c.Panel(0).State)
	}
	frame(c, sched)
	if c.Panel(0).State != Cooldown || c.Panel(0).Angle != DefaultConfig().Target {
		t.Fatalf("expected cooldown at target after 42 ticks, got %+v", c.Panel(0))
	}
	if len(opened) != 1 || opened[0] != 0 {
		t.Errorf("expected OnOpened(0) once, got %v", opened)
	}

	q, _ := s.Rotation(s.Resolve("door_0"))
	if math.Abs(float64(q.W)-math.Cos(DefaultConfig().Target/2)) > 1e-5 {
		t.Errorf("scene node not rotated to target: %v", q)
	}

	// Cooldown lasts 2s of game time
	sched.Advance(2*time.Second - time.Millisecond)
	if c.Panel(0).State != Cooldown {
		t.Fatal("cooldown ended early")
	}
	sched.Advance(time.Millisecond)

	for i := 0; i < 2; i++ {
		p := c.Panel(i)
		if p.Angle != 0 || p.State != Idle || p.Active {
			t.Errorf("panel %d not reset: %+v", i, p)
		}
	}
	if c.Locked() {
		t.Error("lock should be released")
	}

	// Machine is reusable, including the other door
	if !c.Activate(1) {
		t.Error("expected re-armed controller to accept door 1")
	}
}

func TestCloseDuringCooldown(t *testing.T) {
	c, sched, _ := newRoom(t)
	rot := &rotations{}
	c.SetRotator(rot)

	c.Activate(1)
	for c.Panel(1).State == Rotating {
		frame(c, sched)
	}
	calls := len(rot.calls[1])

	c.Close()
	if sched.Len() != 0 {
		t.Errorf("expected cooldown cancelled, %d timers pending", sched.Len())
	}
	sched.Advance(5 * time.Second)

	p := c.Panel(1)
	if p.Active || c.Locked() {
		t.Errorf("flags not cleared: %+v locked=%v", p, c.Locked())
	}
	if p.Angle != DefaultConfig().Target {
		t.Errorf("Close must not reset angles, got %v", p.Angle)
	}
	if len(rot.calls[1]) != calls {
		t.Error("no scene mutation expected after Close")
	}
	if c.Activate(0) {
		t.Error("closed controller should ignore activation")
	}
}

func TestUnresolvedNodeIsSoftNoop(t *testing.T) {
	sched := timer.NewScheduler()
	rot := &rotations{}
	c := NewController(DefaultConfig(), 2, sched, rot)
	c.Bind(0, scene.NodeHandle{})

	if !c.Activate(0) {
		t.Fatal("activation should be accepted without a node")
	}
	for i := 0; i < 50; i++ {
		frame(c, sched)
	}
	if len(rot.calls) != 0 {
		t.Errorf("expected no scene mutations, got %v", rot.calls)
	}
	if c.Panel(0).State != Cooldown {
		t.Errorf("state machine should still run, got %v", c.Panel(0).State)
	}
}

func TestNilRotator(t *testing.T) {
	sched := timer.NewScheduler()
	c := NewController(DefaultConfig(), 1, sched, nil)
	c.Activate(0)
	for i := 0; i < 50; i++ {
		frame(c, sched)
	}
	sched.Advance(3 * time.Second)
	if c.Panel(0).State != Idle {
		t.Errorf("expected idle after full cycle, got %v", c.Panel(0).State)
	}
}

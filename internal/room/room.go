// Package room composes the scene controllers: doors, click zones, the camera
// rig, the viewport adjuster and the room lights. Everything here runs on the
// frame thread.
package room

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/virtual-room/internal/config"
	"github.com/Faultbox/virtual-room/internal/engine/camera"
	"github.com/Faultbox/virtual-room/internal/engine/lighting"
	"github.com/Faultbox/virtual-room/internal/engine/picking"
	"github.com/Faultbox/virtual-room/internal/engine/scene"
	"github.com/Faultbox/virtual-room/internal/engine/timer"
	"github.com/Faultbox/virtual-room/internal/engine/viewport"
	"github.com/Faultbox/virtual-room/internal/logger"
	"github.com/Faultbox/virtual-room/internal/navigation"
	"github.com/Faultbox/virtual-room/internal/room/door"
	"github.com/Faultbox/virtual-room/internal/room/zone"
)

// dragThreshold is how far the pointer may move, in pixels, before a press
// stops counting as a click.
const dragThreshold = 4

// Options configures a Room.
type Options struct {
	Doors         door.Config
	DoorNodes     []string
	NavigateDelay time.Duration

	Rig      camera.RigConfig
	Distance float32
	Target   mgl32.Vec3
	Polar    float64 // Radians

	BaseFOV float64
	MaxFOV  float64

	Zones     []zone.Zone
	Targets   []navigation.Target
	Navigator navigation.Navigator
	Lights    []lighting.Light
}

// OptionsFromConfig converts the file configuration. Targets and Navigator are
// left for the caller.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	zones := make([]zone.Zone, 0, len(cfg.Zones))
	for i, zc := range cfg.Zones {
		kind, err := zone.ParseKind(zc.Kind)
		if err != nil {
			return Options{}, fmt.Errorf("zones[%d]: %w", i, err)
		}
		zones = append(zones, zone.Zone{
			Kind: kind,
			Door: zc.Door,
			Box:  picking.NewAABB(mgl32.Vec3(zc.Min), mgl32.Vec3(zc.Max)),
		})
	}

	return Options{
		Doors: door.Config{
			Step:     mgl64.DegToRad(cfg.Doors.StepDeg),
			Target:   mgl64.DegToRad(cfg.Doors.TargetDeg),
			Cooldown: cfg.Doors.Cooldown,
		},
		DoorNodes:     cfg.Scene.DoorNodes,
		NavigateDelay: cfg.Doors.NavigateDelay,
		Rig: camera.RigConfig{
			MinAzimuth:   mgl64.DegToRad(cfg.Camera.MinAzimuthDeg),
			MaxAzimuth:   mgl64.DegToRad(cfg.Camera.MaxAzimuthDeg),
			Speed:        cfg.Camera.Speed,
			InitialDelay: cfg.Camera.InitialDelay,
			ResumeDelay:  cfg.Camera.ResumeDelay,
		},
		Distance: cfg.Camera.Distance,
		Target:   mgl32.Vec3(cfg.Camera.Target),
		Polar:    mgl64.DegToRad(cfg.Camera.PolarDeg),
		BaseFOV:  cfg.Viewport.BaseFOV,
		MaxFOV:   cfg.Viewport.MaxFOV,
		Zones:    zones,
		Lights:   lighting.RoomLights(),
	}, nil
}

// DefaultOptions returns the options for the stock configuration.
func DefaultOptions() Options {
	opts, err := OptionsFromConfig(config.Default())
	if err != nil {
		panic(err)
	}
	return opts
}

// Room is the interactive scene controller.
type Room struct {
	Camera *camera.OrbitCamera

	sched    *timer.Scheduler
	rig      *camera.Rig
	viewport *viewport.Adjuster
	doors    *door.Controller
	zones    *zone.Set
	lights   *lighting.Rig
	graph    scene.Graph

	doorNodes []string
	mounted   bool
	width     int
	height    int

	// Pointer state
	pressed      bool
	dragging     bool
	downX, downY int
	lastX, lastY int

	log *zap.Logger
}

// New creates an unmounted room.
func New(opts Options) *Room {
	sched := timer.NewScheduler()

	cam := camera.NewOrbitCamera()
	cam.MinAzimuth = float32(opts.Rig.MinAzimuth)
	cam.MaxAzimuth = float32(opts.Rig.MaxAzimuth)
	if opts.Distance > 0 {
		cam.Distance = opts.Distance
	}
	if opts.Polar > 0 {
		cam.Polar = float32(opts.Polar)
	}
	cam.Target = opts.Target
	cam.FOV = float32(opts.BaseFOV)

	doors := door.NewController(opts.Doors, len(opts.DoorNodes), sched, nil)
	zones := zone.NewSet(opts.Zones, doors, sched, opts.Navigator, opts.NavigateDelay)
	zones.SetTargets(opts.Targets)

	return &Room{
		Camera:    cam,
		sched:     sched,
		rig:       camera.NewRig(opts.Rig, cam, sched),
		viewport:  viewport.NewAdjuster(opts.BaseFOV, opts.MaxFOV, cam),
		doors:     doors,
		zones:     zones,
		lights:    lighting.NewRig(opts.Lights),
		doorNodes: opts.DoorNodes,
		log:       logger.Named("room"),
	}
}

// Mount adds the lights, sizes the viewport and arms the camera rig.
func (r *Room) Mount(g scene.Graph, width, height int) {
	if r.mounted {
		return
	}
	r.mounted = true
	r.lights.Mount(g)
	r.Resize(width, height)
	r.rig.Mount()
	r.log.Info("room mounted", zap.Int("lights", r.lights.Mounted()), zap.Int("zones", r.zones.Len()))
}

// Bind resolves the door nodes once the scene has loaded.
func (r *Room) Bind(g scene.Graph) {
	r.graph = g
	r.doors.SetRotator(g)
	for i, name := range r.doorNodes {
		h := g.Resolve(name)
		if !h.OK() {
			r.log.Debug("door node not found", zap.String("node", name),
				zap.Error(fmt.Errorf("%w: %q", scene.ErrNodeNotFound, name)))
		}
		r.doors.Bind(i, h)
	}
}

// Update advances timers, then the door and camera animations, by one frame.
func (r *Room) Update(dt time.Duration) {
	if !r.mounted {
		return
	}
	r.sched.Advance(dt)
	r.doors.Update()
	r.rig.Update(dt)
}

// Resize recomputes the field of view for a new viewport size.
func (r *Room) Resize(width, height int) viewport.Metrics {
	if width > 0 && height > 0 {
		r.width, r.height = width, height
	}
	return r.viewport.Resize(width, height)
}

// PointerDown starts a press. Like an orbit control, any press counts as the
// start of an interaction.
func (r *Room) PointerDown(x, y int) {
	if !r.mounted {
		return
	}
	r.pressed = true
	r.dragging = false
	r.downX, r.downY = x, y
	r.lastX, r.lastY = x, y
	r.rig.InteractionStart()

	if i, ok := r.pick(x, y); ok {
		r.zones.Press(i)
	}
}

// PointerMove drags the camera while pressed and updates hover otherwise.
func (r *Room) PointerMove(x, y int) {
	if !r.mounted {
		return
	}
	if !r.pressed {
		if i, ok := r.pick(x, y); ok {
			r.zones.Hover(i)
		} else {
			r.zones.Hover(-1)
		}
		return
	}

	if !r.dragging && (abs(x-r.downX) > dragThreshold || abs(y-r.downY) > dragThreshold) {
		r.dragging = true
		r.zones.Unhover()
	}
	if r.dragging {
		r.Camera.HandleDrag(float32(x-r.lastX), float32(y-r.lastY))
	}
	r.lastX, r.lastY = x, y
}

// PointerUp ends the interaction. A press released over the zone it started
// on, without dragging, activates that zone.
func (r *Room) PointerUp(x, y int) {
	if !r.mounted || !r.pressed {
		return
	}
	r.pressed = false
	r.rig.InteractionEnd()

	pressed := r.zones.Release()
	if r.dragging || pressed < 0 {
		r.dragging = false
		return
	}
	if i, ok := r.pick(x, y); !ok || i != pressed {
		return
	}

	if err := r.zones.Activate(pressed); err != nil {
		if errors.Is(err, navigation.ErrMissingTarget) {
			r.log.Warn("zone has no target", zap.Int("zone", pressed))
			return
		}
		r.log.Error("zone activation failed", zap.Int("zone", pressed), zap.Error(err))
	}
}

// PointerLeave clears hover when the pointer leaves the window.
func (r *Room) PointerLeave() {
	r.zones.Unhover()
}

func (r *Room) pick(x, y int) (int, bool) {
	if r.width <= 0 || r.height <= 0 {
		return -1, false
	}
	ray := picking.ScreenToRay(float32(x), float32(y), float32(r.width), float32(r.height), r.Camera.InvViewProj())
	return r.zones.Pick(ray)
}

// Unmount cancels every timer and removes the lights.
func (r *Room) Unmount() {
	if !r.mounted {
		return
	}
	r.zones.Close()
	r.doors.Close()
	r.rig.Close()
	r.lights.Unmount()
	r.sched.Stop()
	r.mounted = false
	r.log.Info("room unmounted")
}

// Mounted reports whether the room is mounted.
func (r *Room) Mounted() bool { return r.mounted }

// Doors returns the door controller.
func (r *Room) Doors() *door.Controller { return r.doors }

// Zones returns the click zones.
func (r *Room) Zones() *zone.Set { return r.zones }

// Rig returns the camera rig.
func (r *Room) Rig() *camera.Rig { return r.rig }

// Graph returns the bound scene, or nil before Bind.
func (r *Room) Graph() scene.Graph { return r.graph }

// Scheduler returns the room's frame clock.
func (r *Room) Scheduler() *timer.Scheduler { return r.sched }

// Metrics returns the current viewport metrics.
func (r *Room) Metrics() viewport.Metrics {
	m, _ := r.viewport.Metrics()
	return m
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package camera

import (
	gomath "math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/virtual-room/internal/engine/timer"
	"github.com/Faultbox/virtual-room/internal/logger"
)

// Azimuther is the part of a camera the rig drives.
type Azimuther interface {
	AzimuthAngle() float64
	SetAzimuth(rad float64)
}

// RigConfig is the auto-rotation policy.
type RigConfig struct {
	MinAzimuth   float64 // Radians
	MaxAzimuth   float64 // Radians
	Speed        float64 // Radians per second
	InitialDelay time.Duration
	ResumeDelay  time.Duration
}

// DefaultRigConfig sweeps +-120 degrees at a full turn per 30 seconds,
// starting 2 seconds after mount and resuming 3 seconds after the user lets go.
func DefaultRigConfig() RigConfig {
	return RigConfig{
		MinAzimuth:   mgl64.DegToRad(-120),
		MaxAzimuth:   mgl64.DegToRad(120),
		Speed:        2 * gomath.Pi / 30,
		InitialDelay: 2 * time.Second,
		ResumeDelay:  3 * time.Second,
	}
}

// Rig auto-rotates a camera back and forth between its azimuth bounds and
// pauses while the user is interacting.
type Rig struct {
	cfg   RigConfig
	cam   Azimuther
	sched *timer.Scheduler

	direction  float64
	autoRotate bool
	engaged    bool
	closed     bool

	start  *timer.Handle
	resume *timer.Handle

	log *zap.Logger
}

// NewRig creates a rig with auto-rotation off.
func NewRig(cfg RigConfig, cam Azimuther, sched *timer.Scheduler) *Rig {
	return &Rig{
		cfg:       cfg,
		cam:       cam,
		sched:     sched,
		direction: 1,
		log:       logger.Named("camera"),
	}
}

// Mount arms the initial idle delay.
func (r *Rig) Mount() {
	if r.closed {
		return
	}
	r.start.Cancel()
	r.start = r.sched.After(r.cfg.InitialDelay, func() {
		r.start = nil
		r.enable("initial delay elapsed")
	})
}

func (r *Rig) enable(reason string) {
	if r.engaged {
		return
	}
	r.autoRotate = true
	r.log.Debug("auto-rotate on", zap.String("reason", reason))
}

// Update advances the azimuth by speed*direction*dt. Reaching or passing a
// bound while moving toward it clamps to the bound and flips the direction.
func (r *Rig) Update(dt time.Duration) {
	if !r.autoRotate || r.engaged || r.closed || dt <= 0 {
		return
	}

	a := r.cam.AzimuthAngle() + r.cfg.Speed*r.direction*dt.Seconds()
	switch {
	case a >= r.cfg.MaxAzimuth && r.direction > 0:
		r.direction = -1
	case a <= r.cfg.MinAzimuth && r.direction < 0:
		r.direction = 1
	}
	r.cam.SetAzimuth(mgl64.Clamp(a, r.cfg.MinAzimuth, r.cfg.MaxAzimuth))
}

// InteractionStart stops auto-rotation and cancels any pending resume.
func (r *Rig) InteractionStart() {
	if r.closed {
		return
	}
	r.engaged = true
	r.autoRotate = false
	r.start.Cancel()
	r.start = nil
	r.resume.Cancel()
	r.resume = nil
}

// InteractionEnd (re)arms the resume timer.
func (r *Rig) InteractionEnd() {
	if r.closed {
		return
	}
	r.engaged = false
	r.resume.Cancel()
	r.resume = r.sched.After(r.cfg.ResumeDelay, func() {
		r.resume = nil
		r.enable("idle after interaction")
	})
}

// Close cancels both timers and stops rotation.
func (r *Rig) Close() {
	r.start.Cancel()
	r.resume.Cancel()
	r.start, r.resume = nil, nil
	r.autoRotate = false
	r.closed = true
}

// AutoRotate reports whether the rig is currently rotating the camera.
func (r *Rig) AutoRotate() bool {
	return r.autoRotate
}

// Engaged reports whether the user is interacting.
func (r *Rig) Engaged() bool {
	return r.engaged
}

// Direction returns +1 or -1.
func (r *Rig) Direction() float64 {
	return r.direction
}

// Resuming reports whether a resume timer is pending.
func (r *Rig) Resuming() bool {
	return r.resume.Active()
}

// Package camera provides the room's orbit camera and the rig that rotates it.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera orbits a target point on a sphere. Azimuth is free within
// [MinAzimuth, MaxAzimuth]; the polar angle is pinned.
type OrbitCamera struct {
	Target   mgl32.Vec3
	Distance float32

	// Spherical coordinates, radians. Polar is measured from +Y, so pi/2 is level.
	Azimuth float32
	Polar   float32

	// Constraints
	MinAzimuth float32
	MaxAzimuth float32

	// Projection
	FOV    float32 // Vertical, degrees
	Aspect float32
	Near   float32
	Far    float32

	DragSensitivity float32
}

// NewOrbitCamera creates a level camera 5 units from the origin with a 40 degree
// field of view and +-120 degree azimuth bounds.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        5,
		Polar:           gomath.Pi / 2,
		MinAzimuth:      mgl32.DegToRad(-120),
		MaxAzimuth:      mgl32.DegToRad(120),
		FOV:             40,
		Aspect:          1,
		Near:            0.1,
		Far:             1000,
		DragSensitivity: 0.005,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	sinPolar := float32(gomath.Sin(float64(c.Polar)))
	offset := mgl32.Vec3{
		c.Distance * sinPolar * float32(gomath.Sin(float64(c.Azimuth))),
		c.Distance * float32(gomath.Cos(float64(c.Polar))),
		c.Distance * sinPolar * float32(gomath.Cos(float64(c.Azimuth))),
	}
	return c.Target.Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the perspective projection.
func (c *OrbitCamera) ProjectionMatrix() mgl32.Mat4 {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// ViewProj returns projection * view.
func (c *OrbitCamera) ViewProj() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

// InvViewProj returns the inverse of ViewProj, used for picking.
func (c *OrbitCamera) InvViewProj() mgl32.Mat4 {
	return c.ViewProj().Inv()
}

// SetFOV sets the vertical field of view in degrees. Safe to call every frame.
func (c *OrbitCamera) SetFOV(deg float64) {
	c.FOV = float32(deg)
}

// SetAspect sets the projection aspect ratio (width / height).
func (c *OrbitCamera) SetAspect(aspect float64) {
	c.Aspect = float32(aspect)
}

// AzimuthAngle returns the current azimuth in radians.
func (c *OrbitCamera) AzimuthAngle() float64 {
	return float64(c.Azimuth)
}

// SetAzimuth sets the azimuth, clamped to the bounds.
func (c *OrbitCamera) SetAzimuth(rad float64) {
	c.Azimuth = mgl32.Clamp(float32(rad), c.MinAzimuth, c.MaxAzimuth)
}

// HandleDrag rotates the camera from a mouse drag delta in pixels.
// Vertical motion is ignored since the polar angle is pinned.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.SetAzimuth(float64(c.Azimuth - deltaX*c.DragSensitivity))
}

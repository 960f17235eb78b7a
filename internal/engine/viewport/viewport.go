// Package viewport keeps the room's vertical framing stable as the window narrows.
package viewport

import "math"

// Projector receives the derived field of view and aspect ratio.
type Projector interface {
	SetFOV(deg float64)
	SetAspect(aspect float64)
}

// Metrics is the result of one measurement.
type Metrics struct {
	Width  int
	Height int
	Aspect float64 // min(width/height, 1)
	FOV    float64 // Degrees
}

// Adjuster derives the camera field of view from the viewport size.
type Adjuster struct {
	BaseFOV float64
	MaxFOV  float64

	cam     Projector
	metrics Metrics
	ok      bool
}

// NewAdjuster creates an adjuster. cam may be nil.
func NewAdjuster(baseFOV, maxFOV float64, cam Projector) *Adjuster {
	return &Adjuster{BaseFOV: baseFOV, MaxFOV: maxFOV, cam: cam}
}

// Compute returns the metrics for a size without applying them.
func (a *Adjuster) Compute(width, height int) Metrics {
	aspect := math.Min(float64(width)/float64(height), 1)
	return Metrics{
		Width:  width,
		Height: height,
		Aspect: aspect,
		FOV:    math.Min(a.BaseFOV/aspect, a.MaxFOV),
	}
}

// Resize recomputes the metrics and applies them to the camera. The camera
// keeps the true width/height ratio for its projection. Non-positive sizes
// (a minimized window) are ignored and the previous metrics are returned.
func (a *Adjuster) Resize(width, height int) Metrics {
	if width <= 0 || height <= 0 {
		return a.metrics
	}
	a.metrics = a.Compute(width, height)
	a.ok = true

	if a.cam != nil {
		a.cam.SetFOV(a.metrics.FOV)
		a.cam.SetAspect(float64(width) / float64(height))
	}
	return a.metrics
}

// Metrics returns the last applied metrics and whether any size was applied.
func (a *Adjuster) Metrics() (Metrics, bool) {
	return a.metrics, a.ok
}

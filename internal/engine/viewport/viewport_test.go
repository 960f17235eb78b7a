package viewport

import (
	"math"
	"testing"
)

type projector struct {
	fov, aspect float64
	calls       int
}

func (p *projector) SetFOV(deg float64)       { p.fov = deg; p.calls++ }
func (p *projector) SetAspect(aspect float64) { p.aspect = aspect }

func TestResize(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		wantAspect float64
		wantFOV    float64
	}{
		{"landscape", 1920, 1080, 1, 40},
		{"square", 800, 800, 1, 40},
		{"portrait", 400, 800, 0.5, 80},
		{"narrow portrait clamps", 300, 900, 1.0 / 3.0, 90},
		{"just under max", 460, 1000, 0.46, 40 / 0.46},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := &projector{}
			a := NewAdjuster(40, 90, cam)
			m := a.Resize(tt.w, tt.h)

			if math.Abs(m.Aspect-tt.wantAspect) > 1e-9 {
				t.Errorf("aspect = %v, want %v", m.Aspect, tt.wantAspect)
			}
			if math.Abs(m.FOV-tt.wantFOV) > 1e-9 {
				t.Errorf("fov = %v, want %v", m.FOV, tt.wantFOV)
			}
			if cam.fov != m.FOV {
				t.Errorf("camera fov %v not applied", cam.fov)
			}
			if want := float64(tt.w) / float64(tt.h); cam.aspect != want {
				t.Errorf("camera aspect = %v, want %v", cam.aspect, want)
			}
		})
	}
}

func TestResizeIdempotent(t *testing.T) {
	cam := &projector{}
	a := NewAdjuster(40, 90, cam)
	first := a.Resize(500, 900)
	second := a.Resize(500, 900)
	if first != second {
		t.Errorf("expected identical metrics, got %+v and %+v", first, second)
	}
}

func TestResizeIgnoresEmptyViewport(t *testing.T) {
	cam := &projector{}
	a := NewAdjuster(40, 90, cam)

	if _, ok := a.Metrics(); ok {
		t.Error("no metrics expected before the first resize")
	}
	prev := a.Resize(600, 800)
	for _, size := range [][2]int{{0, 0}, {600, 0}, {-1, 400}} {
		if got := a.Resize(size[0], size[1]); got != prev {
			t.Errorf("Resize(%d, %d) = %+v, want previous %+v", size[0], size[1], got, prev)
		}
	}
	if cam.calls != 1 {
		t.Errorf("camera updated %d times, want 1", cam.calls)
	}
}

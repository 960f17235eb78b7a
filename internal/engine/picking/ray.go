// Package picking provides ray casting against click-zone boxes.
package picking

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized direction
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// NewAABB creates an AABB from two corners in any order.
func NewAABB(a, b mgl32.Vec3) AABB {
	box := AABB{Min: a, Max: b}
	for i := 0; i < 3; i++ {
		if box.Min[i] > box.Max[i] {
			box.Min[i], box.Max[i] = box.Max[i], box.Min[i]
		}
	}
	return box
}

// Center returns the box midpoint.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Corners returns the eight box corners, bottom face first.
func (b AABB) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
	}
}

// ScreenToRay converts pixel coordinates to a world-space ray.
// invViewProj is the inverse of projection * view.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj mgl32.Mat4) Ray {
	// Normalized device coords (-1 to 1), Y flipped
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH

	near := unproject(invViewProj, mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := unproject(invViewProj, mgl32.Vec4{ndcX, ndcY, 1, 1})

	dir := far.Sub(near)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: near, Direction: dir}
}

func unproject(inv mgl32.Mat4, p mgl32.Vec4) mgl32.Vec3 {
	w := inv.Mul4x1(p)
	if w[3] != 0 {
		return mgl32.Vec3{w[0] / w[3], w[1] / w[3], w[2] / w[3]}
	}
	return w.Vec3()
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to the entry point, or the exit point when the ray
// starts inside the box.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		if r.Direction[axis] == 0 {
			if r.Origin[axis] < box.Min[axis] || r.Origin[axis] > box.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[axis] - r.Origin[axis]) / r.Direction[axis]
		t2 := (box.Max[axis] - r.Origin[axis]) / r.Direction[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

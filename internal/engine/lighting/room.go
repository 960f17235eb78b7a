// Package lighting describes the room's light rig and mounts it on a scene.
package lighting

import "github.com/go-gl/mathgl/mgl32"

// Kind identifies a light type.
type Kind int

const (
	Ambient Kind = iota
	Area
	Spot
)

func (k Kind) String() string {
	switch k {
	case Ambient:
		return "ambient"
	case Area:
		return "area"
	case Spot:
		return "spot"
	default:
		return "unknown"
	}
}

// Light is a declarative light description.
type Light struct {
	Kind      Kind
	Position  mgl32.Vec3
	Target    mgl32.Vec3 // Look-at point for area and spot lights
	Color     mgl32.Vec3
	Intensity float32

	// Area lights
	Width, Height float32

	// Spot lights
	Angle    float32 // Radians
	Penumbra float32
	Distance float32 // 0 means unlimited
	Shadows  bool
}

// ID identifies a light added to a scene.
type ID int

// Scene is the part of the scene graph the rig needs.
type Scene interface {
	AddLight(l Light) ID
	RemoveLight(id ID)
}

var white = mgl32.Vec3{1, 1, 1}

// RoomLights returns the stock rig: ambient fill, four ceiling strips along the
// walls, one spot over the door wall and four corner spots.
func RoomLights() []Light {
	lights := []Light{
		{Kind: Ambient, Color: white, Intensity: 3},
	}

	strip := func(x, z, w, h float32) Light {
		return Light{
			Kind:      Area,
			Position:  mgl32.Vec3{x, 2.19, z},
			Target:    mgl32.Vec3{x, 10, z},
			Color:     white,
			Intensity: 10,
			Width:     w,
			Height:    h,
		}
	}
	lights = append(lights,
		strip(0, -4.6, 9, 0.1),
		strip(0, 4.6, 9, 0.1),
		strip(-4.6, 0, 0.1, 9),
		strip(4.6, 0, 0.1, 9),
	)

	spot := func(pos mgl32.Vec3, angle float32) Light {
		return Light{
			Kind:      Spot,
			Position:  pos,
			Target:    mgl32.Vec3{0, -1, 0},
			Color:     white,
			Intensity: 1,
			Angle:     angle,
			Penumbra:  0.1,
			Shadows:   true,
		}
	}
	lights = append(lights,
		spot(mgl32.Vec3{0, 2.1, -4.1}, 1),
		spot(mgl32.Vec3{-1.5, 2.5, -1.5}, 1.35),
		spot(mgl32.Vec3{1.5, 2.5, -1.5}, 1.35),
		spot(mgl32.Vec3{-1.5, 2.5, 1.5}, 1.35),
		spot(mgl32.Vec3{1.5, 2.5, 1.5}, 1.35),
	)
	return lights
}

// Rig owns the lights it added so it can remove exactly those.
type Rig struct {
	lights  []Light
	scene   Scene
	mounted []ID
}

// NewRig creates a rig for the given lights.
func NewRig(lights []Light) *Rig {
	return &Rig{lights: lights}
}

// Mount adds every light to the scene. Mounting twice is a no-op.
func (r *Rig) Mount(s Scene) {
	if r.scene != nil {
		return
	}
	r.scene = s
	r.mounted = make([]ID, 0, len(r.lights))
	for _, l := range r.lights {
		r.mounted = append(r.mounted, s.AddLight(l))
	}
}

// Unmount removes the lights added by Mount.
func (r *Rig) Unmount() {
	if r.scene == nil {
		return
	}
	for _, id := range r.mounted {
		r.scene.RemoveLight(id)
	}
	r.mounted = nil
	r.scene = nil
}

// Mounted returns the number of lights currently in the scene.
func (r *Rig) Mounted() int {
	return len(r.mounted)
}

// Package scene holds the room's scene graph: the decoded glTF document, the
// lights mounted on it and the transforms animated by the controllers.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"github.com/Faultbox/virtual-room/internal/engine/lighting"
)

// ErrNodeNotFound is reported when a node name does not exist in the document.
var ErrNodeNotFound = errors.New("scene node not found")

// NodeHandle is the result of resolving a node by name after load.
// The zero value is absent.
type NodeHandle struct {
	index int
	ok    bool
}

// OK reports whether the handle refers to a node.
func (h NodeHandle) OK() bool {
	return h.ok
}

// Index returns the node index in the document, or -1 when absent.
func (h NodeHandle) Index() int {
	if !h.ok {
		return -1
	}
	return h.index
}

// Graph is the scene capability used by the controllers.
type Graph interface {
	lighting.Scene
	Resolve(name string) NodeHandle
	SetRotationY(h NodeHandle, radians float64)
}

// Scene is an in-memory Graph over a glTF document.
type Scene struct {
	doc    *gltf.Document
	byName map[string]int
	base   map[int]mgl32.Quat // Authored rotation of animated nodes

	lights    map[lighting.ID]lighting.Light
	nextLight lighting.ID
}

var _ Graph = (*Scene)(nil)

// New creates a scene over doc. A nil doc gives an empty scene that only holds lights.
func New(doc *gltf.Document) *Scene {
	s := &Scene{
		doc:    doc,
		byName: make(map[string]int),
		base:   make(map[int]mgl32.Quat),
		lights: make(map[lighting.ID]lighting.Light),
	}
	s.Attach(doc)
	return s
}

// Attach replaces the document, keeping mounted lights. Existing handles become stale.
func (s *Scene) Attach(doc *gltf.Document) {
	s.doc = doc
	s.byName = make(map[string]int)
	s.base = make(map[int]mgl32.Quat)
	if doc == nil {
		return
	}
	for i, n := range doc.Nodes {
		if n == nil || n.Name == "" {
			continue
		}
		// First node wins on duplicate names
		if _, dup := s.byName[n.Name]; !dup {
			s.byName[n.Name] = i
		}
	}
}

// Decode parses GLB or glTF JSON bytes.
func Decode(data []byte) (*gltf.Document, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding glTF: %w", err)
	}
	return doc, nil
}

// Lookup resolves a node by name, returning ErrNodeNotFound when absent.
func (s *Scene) Lookup(name string) (NodeHandle, error) {
	i, ok := s.byName[name]
	if !ok {
		return NodeHandle{}, fmt.Errorf("%w: %q", ErrNodeNotFound, name)
	}
	return NodeHandle{index: i, ok: true}, nil
}

// Resolve is Lookup without the error.
func (s *Scene) Resolve(name string) NodeHandle {
	h, _ := s.Lookup(name)
	return h
}

// SetRotationY rotates a node about its local Y axis relative to its authored rotation.
// Absent or stale handles are ignored.
func (s *Scene) SetRotationY(h NodeHandle, radians float64) {
	if !h.ok || s.doc == nil || h.index >= len(s.doc.Nodes) {
		return
	}
	n := s.doc.Nodes[h.index]

	base, ok := s.base[h.index]
	if !ok {
		r := n.RotationOrDefault()
		base = mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
		s.base[h.index] = base
	}

	q := base.Mul(mgl32.QuatRotate(float32(radians), mgl32.Vec3{0, 1, 0})).Normalize()
	n.Rotation = [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}

// Rotation returns a node's current rotation.
func (s *Scene) Rotation(h NodeHandle) (mgl32.Quat, bool) {
	if !h.ok || s.doc == nil || h.index >= len(s.doc.Nodes) {
		return mgl32.QuatIdent(), false
	}
	r := s.doc.Nodes[h.index].RotationOrDefault()
	return mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}, true
}

// AddLight stores a light and returns its id.
func (s *Scene) AddLight(l lighting.Light) lighting.ID {
	s.nextLight++
	s.lights[s.nextLight] = l
	return s.nextLight
}

// RemoveLight deletes a light. Unknown ids are ignored.
func (s *Scene) RemoveLight(id lighting.ID) {
	delete(s.lights, id)
}

// Lights returns the mounted lights in insertion order.
func (s *Scene) Lights() []lighting.Light {
	ids := make([]lighting.ID, 0, len(s.lights))
	for id := range s.lights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]lighting.Light, len(ids))
	for i, id := range ids {
		out[i] = s.lights[id]
	}
	return out
}

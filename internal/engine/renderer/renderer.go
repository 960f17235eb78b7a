// Package renderer provides OpenGL rendering functionality.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/virtual-room/internal/engine/shader"
	"github.com/Faultbox/virtual-room/internal/logger"
	"github.com/Faultbox/virtual-room/internal/room/zone"
)

const vertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uMVP;

void main() {
	gl_Position = uMVP * vec4(aPos, 1.0);
}
`

const fragmentShader = `
#version 410 core

uniform vec4 uColor;
out vec4 FragColor;

void main() {
	FragColor = uColor;
}
`

// Zone outline colors by interaction state.
var (
	zoneIdle    = mgl32.Vec4{1, 1, 1, 0.15}
	zoneHover   = mgl32.Vec4{1, 1, 1, 0.5}
	zonePressed = mgl32.Vec4{1, 1, 1, 0.85}
)

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	Background [3]float32
}

// Renderer draws the room background, click zone outlines and the loading overlay.
type Renderer struct {
	config Config

	program *shader.Program
	vao     uint32
	vbo     uint32
	scratch []float32

	log *zap.Logger
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		log:    logger.Named("renderer"),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(cfg.Background[0], cfg.Background[1], cfg.Background[2], 1.0)

	var err error
	r.program, err = shader.New(vertexShader, fragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	r.createBuffers()
	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	if r.program != nil {
		r.program.Delete()
	}
}

// Resize handles window resize. Sizes are drawable pixels.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

// DrawZones outlines every click zone's box.
func (r *Renderer) DrawZones(viewProj mgl32.Mat4, zones []zone.Zone) {
	for _, z := range zones {
		color := zoneIdle
		switch {
		case z.Pressed:
			color = zonePressed
		case z.Hovered:
			color = zoneHover
		}
		r.draw(gl.LINES, boxEdges(r.scratch[:0], z.Box.Corners()), viewProj, color)
	}
}

// DrawLoading draws the loading overlay: a white veil with a progress bar.
// progress is 0..1 and alpha fades the whole overlay out.
func (r *Renderer) DrawLoading(progress, alpha float32) {
	if alpha <= 0 {
		return
	}
	progress = mgl32.Clamp(progress, 0, 1)
	ident := mgl32.Ident4()

	r.draw(gl.TRIANGLES, quad(r.scratch[:0], -1, -1, 1, 1), ident, mgl32.Vec4{1, 1, 1, 0.9 * alpha})

	const barW, barH = 0.6, 0.02
	r.draw(gl.TRIANGLES, quad(r.scratch[:0], -barW, -barH, barW, barH), ident, mgl32.Vec4{0.85, 0.85, 0.85, alpha})
	if progress > 0 {
		right := -barW + 2*barW*progress
		r.draw(gl.TRIANGLES, quad(r.scratch[:0], -barW, -barH, right, barH), ident, mgl32.Vec4{0.5, 0.25, 0.75, alpha})
	}
}

func (r *Renderer) draw(mode uint32, verts []float32, mvp mgl32.Mat4, color mgl32.Vec4) {
	if len(verts) == 0 {
		return
	}
	r.scratch = verts

	r.program.Use()
	r.program.SetMat4("uMVP", mvp)
	r.program.SetVec4("uColor", color)

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, unsafe.Pointer(&verts[0]), gl.DYNAMIC_DRAW)
	gl.DrawArrays(mode, 0, int32(len(verts)/3))
}

func (r *Renderer) createBuffers() {
	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)

	// Position attribute (location = 0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	r.log.Debug("buffers created", zap.Uint32("vao", r.vao), zap.Uint32("vbo", r.vbo))
}

// boxEdgeIndices pairs the corners from picking.AABB.Corners into the 12 box edges.
var boxEdgeIndices = [24]int{
	0, 1, 1, 2, 2, 3, 3, 0, // bottom
	4, 5, 5, 6, 6, 7, 7, 4, // top
	0, 4, 1, 5, 2, 6, 3, 7, // sides
}

func boxEdges(dst []float32, corners [8]mgl32.Vec3) []float32 {
	for _, i := range boxEdgeIndices {
		c := corners[i]
		dst = append(dst, c[0], c[1], c[2])
	}
	return dst
}

func quad(dst []float32, x0, y0, x1, y1 float32) []float32 {
	return append(dst,
		x0, y0, 0, x1, y0, 0, x1, y1, 0,
		x0, y0, 0, x1, y1, 0, x0, y1, 0,
	)
}

package states

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/virtual-room/internal/engine/scene"
	"github.com/Faultbox/virtual-room/internal/logger"
	"github.com/Faultbox/virtual-room/internal/room"
)

// RoomState runs the interactive room.
type RoomState struct {
	room  *room.Room
	scene *scene.Scene

	width  int
	height int
}

// NewRoomState creates a room state for a loaded scene and the current window size.
func NewRoomState(r *room.Room, s *scene.Scene, width, height int) *RoomState {
	return &RoomState{room: r, scene: s, width: width, height: height}
}

// Enter mounts the room and resolves its door nodes.
func (s *RoomState) Enter() error {
	logger.Info("entering RoomState", zap.Int("width", s.width), zap.Int("height", s.height))
	s.room.Mount(s.scene, s.width, s.height)
	s.room.Bind(s.scene)
	return nil
}

// Exit unmounts the room, cancelling every pending timer.
func (s *RoomState) Exit() error {
	s.room.Unmount()
	return nil
}

// Update advances the room by dt seconds.
func (s *RoomState) Update(dt float64) error {
	s.room.Update(time.Duration(dt * float64(time.Second)))
	return nil
}

// Render is called every frame to draw the state.
func (s *RoomState) Render() error {
	return nil
}

// HandleInput routes pointer and resize events to the room.
func (s *RoomState) HandleInput(event interface{}) error {
	switch e := event.(type) {
	case PointerEvent:
		switch e.Kind {
		case PointerMove:
			s.room.PointerMove(e.X, e.Y)
		case PointerDown:
			s.room.PointerDown(e.X, e.Y)
		case PointerUp:
			s.room.PointerUp(e.X, e.Y)
		case PointerLeave:
			s.room.PointerLeave()
		}
	case ResizeEvent:
		s.width, s.height = e.Width, e.Height
		s.room.Resize(e.Width, e.Height)
	}
	return nil
}

// Room returns the room controller.
func (s *RoomState) Room() *room.Room {
	return s.room
}

// Scene returns the loaded scene.
func (s *RoomState) Scene() *scene.Scene {
	return s.scene
}

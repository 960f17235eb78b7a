// Package input handles SDL2 input events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies a processed input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseLeave
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	Button uint8
}

// Input handles all input processing.
type Input struct {
	events []Event
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events and converts them to viewer events.
// Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			return true

		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_SIZE_CHANGED:
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			case sdl.WINDOWEVENT_LEAVE:
				i.events = append(i.events, Event{Type: EventMouseLeave})
			}

		case *sdl.KeyboardEvent:
			typ := EventKeyDown
			if e.Type == sdl.KEYUP {
				typ = EventKeyUp
			}
			i.events = append(i.events, Event{Type: typ, Key: e.Keysym.Scancode})

		case *sdl.MouseMotionEvent:
			i.events = append(i.events, Event{
				Type:   EventMouseMove,
				MouseX: int(e.X),
				MouseY: int(e.Y),
			})

		case *sdl.MouseButtonEvent:
			typ := EventMouseDown
			if e.Type == sdl.MOUSEBUTTONUP {
				typ = EventMouseUp
			}
			i.events = append(i.events, Event{
				Type:   typ,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: e.Button,
			})
		}
	}

	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// Package states implements viewer state management.
package states

// State represents a viewer state (loading, room).
type State interface {
	// Enter is called when entering this state.
	Enter() error

	// Exit is called when leaving this state.
	Exit() error

	// Update is called every frame with the elapsed time in seconds.
	Update(dt float64) error

	// Render is called every frame to draw the state.
	Render() error

	// HandleInput processes input events (PointerEvent, ResizeEvent).
	HandleInput(event interface{}) error
}

// Manager manages state transitions.
type Manager struct {
	current State
	next    State
}

// NewManager creates a new state manager.
func NewManager() *Manager {
	return &Manager{}
}

// Current returns the current state.
func (m *Manager) Current() State {
	return m.current
}

// Change schedules a state change for the next Update.
func (m *Manager) Change(next State) {
	m.next = next
}

// Update processes state changes and updates current state.
func (m *Manager) Update(dt float64) error {
	// Handle state transition
	if m.next != nil {
		if m.current != nil {
			if err := m.current.Exit(); err != nil {
				return err
			}
		}
		m.current = m.next
		m.next = nil
		if err := m.current.Enter(); err != nil {
			return err
		}
	}

	// Update current state
	if m.current != nil {
		return m.current.Update(dt)
	}
	return nil
}

// Render renders the current state.
func (m *Manager) Render() error {
	if m.current != nil {
		return m.current.Render()
	}
	return nil
}

// HandleInput forwards an event to the current state.
func (m *Manager) HandleInput(event interface{}) error {
	if m.current != nil {
		return m.current.HandleInput(event)
	}
	return nil
}

// Shutdown exits the current state. Used on quit so timers and loads are cancelled.
func (m *Manager) Shutdown() error {
	m.next = nil
	if m.current == nil {
		return nil
	}
	err := m.current.Exit()
	m.current = nil
	return err
}

package states

// PointerKind identifies a pointer event.
type PointerKind int

const (
	PointerMove PointerKind = iota
	PointerDown
	PointerUp
	PointerLeave
)

// PointerEvent is a primary-button pointer event in window pixels.
type PointerEvent struct {
	Kind PointerKind
	X, Y int
}

// ResizeEvent reports a new drawable size.
type ResizeEvent struct {
	Width, Height int
}

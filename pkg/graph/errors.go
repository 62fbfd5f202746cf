package graph

import "errors"

var (
	// ErrNodeNotFound is returned when a node handle does not refer to a live node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrPinNotFound is returned when a pin handle does not refer to a live pin.
	ErrPinNotFound = errors.New("pin not found")

	// ErrConnectionNotFound is returned when a connection handle does not refer to a live connection.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrKindMismatch is returned when the two pins of a connection carry different kinds.
	ErrKindMismatch = errors.New("pin kinds do not match")

	// ErrDirectionMismatch is returned when a connection does not run from an output to an input.
	ErrDirectionMismatch = errors.New("connection must run from an output pin to an input pin")

	// ErrSameNode is returned when both pins of a connection belong to one node.
	ErrSameNode = errors.New("cannot connect two pins of the same node")

	// ErrInputOccupied is returned when the target input pin already has a connection.
	ErrInputOccupied = errors.New("input pin is already connected")

	// ErrNotEditable is returned when setting literal text on a pin that carries none.
	ErrNotEditable = errors.New("pin does not carry a literal value")

	// ErrNotDynamic is returned when resolving the kind of a fixed-kind pin.
	ErrNotDynamic = errors.New("pin kind is not dynamic")

	// ErrKindNotAllowed is returned when a dynamic pin is resolved to a kind outside its choices.
	ErrKindNotAllowed = errors.New("kind is not one of the pin's choices")

	// ErrPinConnected is returned when changing the kind of a pin that has connections.
	ErrPinConnected = errors.New("pin has connections")
)

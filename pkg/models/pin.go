package models

// Direction represents the direction of data flow for a pin.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// PinSchema is the immutable template of a pin declared by a node type.
type PinSchema struct {
	Name     string   `json:"name,omitempty"`
	Kind     DataKind `json:"kind"`
	Editable bool     `json:"editable"`
}

// HasLiteral reports whether pins built from this schema carry literal text.
func (s PinSchema) HasLiteral() bool {
	return s.Editable && s.Kind.Scalar()
}

// Position is the canvas location of a node. The engine never reads it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Image is the value carried by image pins.
type Image struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   []byte `json:"data,omitempty"`
}

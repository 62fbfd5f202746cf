package models

// Document is the persisted form of a graph.
type Document struct {
	Nodes       []NodeRecord       `json:"nodes"       validate:"dive"`
	Connections []ConnectionRecord `json:"connections" validate:"dive"`
}

// NodeRecord stores one node. Its position in Document.Nodes is its index.
type NodeRecord struct {
	Name                 string   `json:"name"`
	X                    float64  `json:"x"`
	Y                    float64  `json:"y"`
	NodeType             string   `json:"node_type"               validate:"required"`
	InputPinValues       []string `json:"input_pin_values"`
	OutputPinValues      []string `json:"output_pin_values"`
	InputPinComboValues  []string `json:"input_pin_combo_values"`
	OutputPinComboValues []string `json:"output_pin_combo_values"`
}

// ConnectionRecord stores one connection by node and pin indices.
type ConnectionRecord struct {
	StartNode int    `json:"start_node" validate:"min=0"`
	EndNode   int    `json:"end_node"   validate:"min=0"`
	StartPin  int    `json:"start_pin"  validate:"min=0"`
	EndPin    int    `json:"end_pin"    validate:"min=0"`
	Color     string `json:"color"`
}

// Key identifies a connection record by its index 4-tuple.
func (c ConnectionRecord) Key() [4]int {
	return [4]int{c.StartNode, c.EndNode, c.StartPin, c.EndPin}
}

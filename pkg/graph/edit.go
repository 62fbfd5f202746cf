package graph

import (
	"fmt"
	"slices"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
)

// CreateNode instantiates a catalog type at position.
func (g *Graph) CreateNode(typeID string, position models.Position) (NodeID, error) {
	if g.catalog == nil {
		return 0, fmt.Errorf("node type '%s': graph has no catalog", typeID)
	}

	nodeType, err := g.catalog.Lookup(typeID)
	if err != nil {
		return 0, err
	}

	return g.AddNode(nodeType, position), nil
}

// AddNode instantiates nodeType at position without a catalog lookup.
func (g *Graph) AddNode(nodeType protocol.NodeType, position models.Position) NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()

	node := &Node{
		id:       NodeID(len(g.arena.nodes)),
		nodeType: nodeType,
		label:    nodeType.Name(),
		position: position,
	}

	for i, schema := range nodeType.Inputs() {
		node.inputs = append(node.inputs, g.addPin(node.id, i, models.DirectionInput, schema))
	}

	for i, schema := range nodeType.Outputs() {
		node.outputs = append(node.outputs, g.addPin(node.id, i, models.DirectionOutput, schema))
	}

	g.arena.nodes = append(g.arena.nodes, node)

	return node.id
}

func (g *Graph) addPin(node NodeID, index int, direction models.Direction, schema models.PinSchema) PinID {
	pin := &Pin{
		id:        PinID(len(g.arena.pins)),
		node:      node,
		index:     index,
		direction: direction,
		schema:    schema,
		kind:      schema.Kind,
	}
	g.arena.pins = append(g.arena.pins, pin)

	return pin.id
}

// Connect links an output pin to an input pin.
//
// A connection to an unresolved dynamic pin resolves it to the peer's kind
// when that kind is one of its choices. A rejected connect leaves the graph
// unchanged.
func (g *Graph) Connect(output, input PinID) (ConnectionID, error) {
	return g.ConnectWithColor(output, input, "")
}

// ConnectWithColor is Connect with a display color recorded on the connection.
func (g *Graph) ConnectWithColor(output, input PinID, color string) (ConnectionID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	source, err := g.arena.pin(output)
	if err != nil {
		return 0, err
	}

	target, err := g.arena.pin(input)
	if err != nil {
		return 0, err
	}

	if source.direction != models.DirectionOutput || target.direction != models.DirectionInput {
		return 0, fmt.Errorf("%w: %s -> %s", ErrDirectionMismatch, source.direction, target.direction)
	}

	if source.node == target.node {
		return 0, fmt.Errorf("%w: node %d", ErrSameNode, source.node)
	}

	if target.Connected() {
		return 0, fmt.Errorf("%w: pin %d", ErrInputOccupied, target.id)
	}

	kind, err := matchKinds(source, target)
	if err != nil {
		return 0, err
	}

	source.kind = kind
	target.kind = kind

	conn := &Connection{
		id:     ConnectionID(len(g.arena.connections)),
		source: source.id,
		target: target.id,
		color:  color,
	}
	g.arena.connections = append(g.arena.connections, conn)
	source.connections = append(source.connections, conn.id)
	target.connections = append(target.connections, conn.id)

	return conn.id, nil
}

// matchKinds returns the kind both pins carry once connected.
func matchKinds(source, target *Pin) (models.DataKind, error) {
	switch {
	case source.Resolved() && target.Resolved():
		if source.kind != target.kind {
			return "", fmt.Errorf("%w: %s -> %s", ErrKindMismatch, source.kind, target.kind)
		}

		return source.kind, nil
	case !source.Resolved() && target.Resolved():
		if !models.IsDynamicChoice(target.kind) {
			return "", fmt.Errorf("%w: %s is not a choice of the dynamic output", ErrKindMismatch, target.kind)
		}

		return target.kind, nil
	case source.Resolved() && !target.Resolved():
		if !models.IsDynamicChoice(source.kind) {
			return "", fmt.Errorf("%w: %s is not a choice of the dynamic input", ErrKindMismatch, source.kind)
		}

		return source.kind, nil
	default:
		return "", fmt.Errorf("%w: both pins are unresolved", ErrKindMismatch)
	}
}

// Disconnect removes a connection. The output pin stays connected while it
// has other connections.
func (g *Graph) Disconnect(id ConnectionID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.disconnect(id)
}

func (g *Graph) disconnect(id ConnectionID) error {
	conn, err := g.arena.connection(id)
	if err != nil {
		return err
	}

	for _, pinID := range []PinID{conn.source, conn.target} {
		if pin, err := g.arena.pin(pinID); err == nil {
			pin.connections = slices.DeleteFunc(pin.connections, func(c ConnectionID) bool { return c == id })
		}
	}

	g.arena.connections[id] = nil

	return nil
}

// DeleteNode severs every connection touching the node, then removes it and its pins.
func (g *Graph) DeleteNode(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, err := g.arena.node(id)
	if err != nil {
		return err
	}

	for _, pinID := range slices.Concat(node.inputs, node.outputs) {
		pin := g.arena.pins[pinID]
		for _, connID := range slices.Clone(pin.connections) {
			if err := g.disconnect(connID); err != nil {
				return err
			}
		}

		g.arena.pins[pinID] = nil
	}

	g.arena.nodes[id] = nil

	return nil
}

// SetLiteral sets the literal text of an editable scalar pin.
func (g *Graph) SetLiteral(id PinID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	pin, err := g.arena.pin(id)
	if err != nil {
		return err
	}

	if !pin.HasLiteral() {
		return fmt.Errorf("%w: pin %d (%s)", ErrNotEditable, id, pin.schema.Kind)
	}

	pin.literal = text

	return nil
}

// ResolveKind selects the concrete kind of a dynamic pin.
func (g *Graph) ResolveKind(id PinID, kind models.DataKind) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	pin, err := g.arena.pin(id)
	if err != nil {
		return err
	}

	if !pin.Dynamic() {
		return fmt.Errorf("%w: pin %d (%s)", ErrNotDynamic, id, pin.kind)
	}

	if !models.IsDynamicChoice(kind) {
		return fmt.Errorf("%w: %s", ErrKindNotAllowed, kind)
	}

	if pin.Connected() && pin.kind != kind {
		return fmt.Errorf("%w: pin %d", ErrPinConnected, id)
	}

	pin.kind = kind

	return nil
}

// SetLabel changes the display label of a node.
func (g *Graph) SetLabel(id NodeID, label string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, err := g.arena.node(id)
	if err != nil {
		return err
	}

	node.label = label

	return nil
}

// MoveNode changes the position of a node.
func (g *Graph) MoveNode(id NodeID, position models.Position) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, err := g.arena.node(id)
	if err != nil {
		return err
	}

	node.position = position

	return nil
}

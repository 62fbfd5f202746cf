// Package graph holds the node, pin and connection arenas a run is scheduled from.
package graph

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
)

type (
	NodeID       int
	PinID        int
	ConnectionID int
)

// Catalog resolves node type identifiers. *registry.Registry satisfies it.
type Catalog interface {
	Lookup(typeID string) (protocol.NodeType, error)
}

// Node is an instance of a node type. It owns its pins by handle.
type Node struct {
	id       NodeID
	nodeType protocol.NodeType
	label    string
	position models.Position
	inputs   []PinID
	outputs  []PinID
}

func (n *Node) ID() NodeID { return n.id }
func (n *Node) Type() protocol.NodeType { return n.nodeType }
func (n *Node) TypeID() string { return n.nodeType.ID() }
func (n *Node) Label() string { return n.label }
func (n *Node) Position() models.Position { return n.position }
func (n *Node) Inputs() []PinID { return slices.Clone(n.inputs) }
func (n *Node) Outputs() []PinID { return slices.Clone(n.outputs) }

func (n *Node) clone() *Node {
	c := *n
	c.inputs = slices.Clone(n.inputs)
	c.outputs = slices.Clone(n.outputs)

	return &c
}

// Pin is a typed terminal of a node.
type Pin struct {
	id          PinID
	node        NodeID
	index       int
	direction   models.Direction
	schema      models.PinSchema
	kind        models.DataKind // KindDynamic while a dynamic pin is unresolved
	literal     string
	connections []ConnectionID
}

func (p *Pin) ID() PinID { return p.id }
func (p *Pin) Node() NodeID { return p.node }
func (p *Pin) Index() int { return p.index }
func (p *Pin) Direction() models.Direction { return p.direction }
func (p *Pin) Schema() models.PinSchema { return p.schema }
func (p *Pin) Kind() models.DataKind { return p.kind }
func (p *Pin) Connections() []ConnectionID { return slices.Clone(p.connections) }
func (p *Pin) Connected() bool { return len(p.connections) > 0 }

// Dynamic reports whether the pin's kind is chosen per instance.
func (p *Pin) Dynamic() bool {
	return p.schema.Kind == models.KindDynamic
}

// Resolved reports whether the pin has a concrete kind.
func (p *Pin) Resolved() bool {
	return p.kind != models.KindDynamic
}

// Choices returns the kinds an unresolved dynamic pin accepts, nil otherwise.
func (p *Pin) Choices() []models.DataKind {
	if !p.Dynamic() || p.Resolved() {
		return nil
	}

	return slices.Clone(models.DynamicChoices)
}

// HasLiteral reports whether the pin carries literal text. A dynamic editable
// pin carries one once its kind is resolved.
func (p *Pin) HasLiteral() bool {
	return p.schema.Editable && p.kind.Scalar()
}

// Literal returns the pin's literal text and whether the pin carries one.
func (p *Pin) Literal() (string, bool) {
	return p.literal, p.HasLiteral()
}

func (p *Pin) clone() *Pin {
	c := *p
	c.connections = slices.Clone(p.connections)

	return &c
}

// Connection is a directed edge from an output pin to an input pin.
type Connection struct {
	id     ConnectionID
	source PinID
	target PinID
	color  string
}

func (c *Connection) ID() ConnectionID { return c.id }
func (c *Connection) Source() PinID { return c.source }
func (c *Connection) Target() PinID { return c.target }
func (c *Connection) Color() string { return c.color }

// arena stores entities by handle. Removed entities leave nil slots so handles
// are never reused.
type arena struct {
	nodes       []*Node
	pins        []*Pin
	connections []*Connection
}

func (a *arena) node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(a.nodes) || a.nodes[id] == nil {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}

	return a.nodes[id], nil
}

func (a *arena) pin(id PinID) (*Pin, error) {
	if id < 0 || int(id) >= len(a.pins) || a.pins[id] == nil {
		return nil, fmt.Errorf("%w: %d", ErrPinNotFound, id)
	}

	return a.pins[id], nil
}

func (a *arena) connection(id ConnectionID) (*Connection, error) {
	if id < 0 || int(id) >= len(a.connections) || a.connections[id] == nil {
		return nil, fmt.Errorf("%w: %d", ErrConnectionNotFound, id)
	}

	return a.connections[id], nil
}

func (a *arena) liveNodes() []*Node {
	nodes := make([]*Node, 0, len(a.nodes))
	for _, n := range a.nodes {
		if n != nil {
			nodes = append(nodes, n)
		}
	}

	return nodes
}

func (a *arena) liveConnections() []*Connection {
	connections := make([]*Connection, 0, len(a.connections))
	for _, c := range a.connections {
		if c != nil {
			connections = append(connections, c)
		}
	}

	return connections
}

func (a *arena) clone() arena {
	c := arena{
		nodes:       make([]*Node, len(a.nodes)),
		pins:        make([]*Pin, len(a.pins)),
		connections: make([]*Connection, len(a.connections)),
	}

	for i, n := range a.nodes {
		if n != nil {
			c.nodes[i] = n.clone()
		}
	}

	for i, p := range a.pins {
		if p != nil {
			c.pins[i] = p.clone()
		}
	}

	for i, conn := range a.connections {
		if conn != nil {
			cc := *conn
			c.connections[i] = &cc
		}
	}

	return c
}

// Graph is the editable set of nodes and connections.
//
// Edits take the write lock. Snapshot takes the read lock, so a run started
// from a snapshot never observes a half-applied edit.
type Graph struct {
	mu      sync.RWMutex
	catalog Catalog
	arena   arena
}

// New creates an empty graph that resolves node types through catalog.
func New(catalog Catalog) *Graph {
	return &Graph{catalog: catalog}
}

// Nodes returns copies of the live nodes in creation order.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	live := g.arena.liveNodes()
	for i, n := range live {
		live[i] = n.clone()
	}

	return live
}

// Node returns a copy of the node.
func (g *Graph) Node(id NodeID) (*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, err := g.arena.node(id)
	if err != nil {
		return nil, err
	}

	return n.clone(), nil
}

// Pin returns a copy of the pin.
func (g *Graph) Pin(id PinID) (*Pin, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, err := g.arena.pin(id)
	if err != nil {
		return nil, err
	}

	return p.clone(), nil
}

// Connections returns copies of the live connections in creation order.
func (g *Graph) Connections() []*Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()

	live := g.arena.liveConnections()
	for i, c := range live {
		cc := *c
		live[i] = &cc
	}

	return live
}

// Connection returns a copy of the connection.
func (g *Graph) Connection(id ConnectionID) (*Connection, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c, err := g.arena.connection(id)
	if err != nil {
		return nil, err
	}

	cc := *c

	return &cc, nil
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.arena.liveNodes())
}

package graph

// Snapshot is an immutable copy of a graph taken under its read lock.
type Snapshot struct {
	arena arena
	nodes []*Node
}

// Snapshot copies the graph so a run can read it while edits continue.
func (g *Graph) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	a := g.arena.clone()

	return &Snapshot{arena: a, nodes: a.liveNodes()}
}

// Nodes returns the live nodes in creation order. Callers must not modify the slice.
func (s *Snapshot) Nodes() []*Node {
	return s.nodes
}

func (s *Snapshot) Node(id NodeID) (*Node, error) {
	return s.arena.node(id)
}

func (s *Snapshot) Pin(id PinID) (*Pin, error) {
	return s.arena.pin(id)
}

func (s *Snapshot) Connection(id ConnectionID) (*Connection, error) {
	return s.arena.connection(id)
}

// Connections returns the live connections in creation order.
func (s *Snapshot) Connections() []*Connection {
	return s.arena.liveConnections()
}

// Upstream returns the output pin feeding an input pin.
func (s *Snapshot) Upstream(input PinID) (*Pin, bool) {
	pin, err := s.arena.pin(input)
	if err != nil || len(pin.connections) == 0 {
		return nil, false
	}

	conn, err := s.arena.connection(pin.connections[0])
	if err != nil {
		return nil, false
	}

	source, err := s.arena.pin(conn.source)
	if err != nil {
		return nil, false
	}

	return source, true
}

// Index returns the position of each live node in creation order.
func (s *Snapshot) Index() map[NodeID]int {
	index := make(map[NodeID]int, len(s.nodes))
	for i, n := range s.nodes {
		index[n.id] = i
	}

	return index
}

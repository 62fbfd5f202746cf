// Package scheduler computes the order in which the nodes of a graph run.
package scheduler

import (
	"slices"

	"github.com/dukex/nodeflow/pkg/graph"
	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/nodes/start"
)

// EntryTypeID is the node type promoted to the front of the initial queue.
const EntryTypeID = start.TypeID

// Dependencies maps every node to the distinct nodes feeding its inputs.
type Dependencies struct {
	Nodes []graph.NodeID                  // Natural order
	Of    map[graph.NodeID][]graph.NodeID // Deduplicated, in first-seen order
}

// BuildDependencies computes the dependency set of every node in the snapshot.
// A producer wired to several inputs of one node counts once.
func BuildDependencies(snapshot *graph.Snapshot) *Dependencies {
	deps := &Dependencies{
		Of: make(map[graph.NodeID][]graph.NodeID, len(snapshot.Nodes())),
	}

	for _, node := range snapshot.Nodes() {
		deps.Nodes = append(deps.Nodes, node.ID())

		seen := make(map[graph.NodeID]bool)
		producers := []graph.NodeID{}

		for _, pinID := range node.Inputs() {
			upstream, ok := snapshot.Upstream(pinID)
			if !ok {
				continue
			}

			producer := upstream.Node()
			if !seen[producer] {
				seen[producer] = true
				producers = append(producers, producer)
			}
		}

		deps.Of[node.ID()] = producers
	}

	return deps
}

// Plan is the execution order of a snapshot.
type Plan struct {
	Order []graph.NodeID

	// Excluded holds the nodes that never became ready: members of a cycle and
	// everything downstream of one. They are not executed.
	Excluded []graph.NodeID
}

// Order returns the execution order of the snapshot.
func Order(snapshot *graph.Snapshot) []graph.NodeID {
	return Schedule(snapshot).Order
}

// Schedule runs Kahn's algorithm over the dependency sets. The first root
// whose type is EntryTypeID is moved to the front of the initial queue once.
// Ties are broken by natural order.
func Schedule(snapshot *graph.Snapshot) *Plan {
	deps := BuildDependencies(snapshot)

	inDegree := make(map[graph.NodeID]int, len(deps.Nodes))
	dependents := make(map[graph.NodeID][]graph.NodeID, len(deps.Nodes))

	for _, id := range deps.Nodes {
		inDegree[id] = len(deps.Of[id])

		for _, producer := range deps.Of[id] {
			dependents[producer] = append(dependents[producer], id)
		}
	}

	queue := []graph.NodeID{}
	for _, id := range deps.Nodes {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	for i, id := range queue {
		node, err := snapshot.Node(id)
		if err == nil && node.TypeID() == EntryTypeID {
			queue = slices.Delete(queue, i, i+1)
			queue = slices.Insert(queue, 0, id)

			break
		}
	}

	plan := &Plan{Order: []graph.NodeID{}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		plan.Order = append(plan.Order, current)

		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	for _, id := range deps.Nodes {
		if inDegree[id] > 0 {
			plan.Excluded = append(plan.Excluded, id)
		}
	}

	return plan
}

// PinVisit is one step of the diagnostic pin walk.
type PinVisit struct {
	Node      graph.NodeID     `json:"node"`
	Pin       graph.PinID      `json:"pin"`
	Index     int              `json:"index"`
	Direction models.Direction `json:"direction"`
}

// PinOrder flattens order into pins: each node's inputs, then its outputs.
// Execution does not depend on it.
func PinOrder(snapshot *graph.Snapshot, order []graph.NodeID) []PinVisit {
	visits := []PinVisit{}

	for _, id := range order {
		node, err := snapshot.Node(id)
		if err != nil {
			continue
		}

		for i, pinID := range node.Inputs() {
			visits = append(visits, PinVisit{Node: id, Pin: pinID, Index: i, Direction: models.DirectionInput})
		}

		for i, pinID := range node.Outputs() {
			visits = append(visits, PinVisit{Node: id, Pin: pinID, Index: i, Direction: models.DirectionOutput})
		}
	}

	return visits
}
